package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/x402-network/facilitator/pkg/config"
	"github.com/x402-network/facilitator/pkg/discovery"
	"github.com/x402-network/facilitator/pkg/handlers"
	"github.com/x402-network/facilitator/pkg/middleware"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fac, err := cfg.BuildFacilitator()
	if err != nil {
		log.Fatalf("Failed to initialize facilitator: %v", err)
	}

	registry := discovery.NewRegistry(func() int64 { return time.Now().Unix() })
	handler := handlers.NewHandler(fac, registry)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())
	router.Use(rateLimitMiddleware())

	switch cfg.LogFormat {
	case "compact":
		log.Println("Using compact logging format")
		router.Use(middleware.CompactLogging())
	case "json":
		log.Println("Using JSON structured logging format")
		router.Use(middleware.StructuredLogging())
	case "none":
		log.Println("Logging disabled")
	default:
		log.Println("Using detailed logging format")
		router.Use(middleware.DetailedLogging())
	}

	handler.Register(router)

	addr := cfg.BindAddress
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting x402 facilitator on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// corsMiddleware adds permissive CORS headers, mirroring the facilitator's
// original cross-origin policy: any resource server may call /verify,
// /settle, and /supported directly from the browser.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Correlation-Context")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func rateLimitMiddleware() gin.HandlerFunc {
	requestsPerMinute := 120
	burstSize := 30
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			requestsPerMinute = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			burstSize = parsed
		}
	}
	return middleware.NewRateLimiter(requestsPerMinute, burstSize).Middleware()
}
