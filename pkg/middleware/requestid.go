package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is both the gin context key and the response header name
// for the per-request correlation ID.
const RequestIDKey = "X-Request-Id"

// RequestID assigns a UUID to every request that doesn't already carry
// one, echoes it back as a response header, and stores it in the gin
// context for downstream logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDKey)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDKey, id)
		c.Next()
	}
}
