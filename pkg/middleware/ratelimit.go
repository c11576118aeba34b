package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a token-bucket limit per client IP, built on
// golang.org/x/time/rate. Idle IPs are swept on every request so the
// visitor map does not grow without bound.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitorEntry

	requestsPerMinute int
	burstSize         int
	idleTimeout       time.Duration
}

type visitorEntry struct {
	limiter    *rate.Limiter
	lastSeenAt time.Time
}

// NewRateLimiter builds a RateLimiter allowing requestsPerMinute sustained
// throughput per IP with bursts up to burstSize.
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	return &RateLimiter{
		visitors:          make(map[string]*visitorEntry),
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		idleTimeout:       10 * time.Minute,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitorEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.requestsPerMinute)/60.0), rl.burstSize),
		}
		rl.visitors[ip] = v
	}
	v.lastSeenAt = time.Now()

	rl.sweepLocked()
	return v.limiter.Allow()
}

func (rl *RateLimiter) sweepLocked() {
	cutoff := time.Now().Add(-rl.idleTimeout)
	for ip, v := range rl.visitors {
		if v.lastSeenAt.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware returns gin middleware enforcing the limiter per client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c.Request)
		if !rl.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "RateLimitExceeded",
				"message": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}

// clientIP prefers X-Forwarded-For, then X-Real-IP, then the connection's
// remote address, matching common reverse-proxy deployments.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
