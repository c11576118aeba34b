package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// DetailedLogging logs each request and response, including bodies, across
// multiple log lines. Intended for local development, not production
// volume (§9 ambient logging).
func DetailedLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		log.Printf("→ %s %s %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		if len(requestBody) > 0 {
			log.Printf("  Body: %s", formatJSON(requestBody))
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		duration := time.Since(start)
		log.Printf("← %s %s → %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
		if recorder.body.Len() > 0 {
			log.Printf("  Response: %s", formatJSON(recorder.body.Bytes()))
		}
	}
}

// CompactLogging logs one line per request, nginx-style.
func CompactLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %s %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// StructuredLogging logs one JSON object per request.
func StructuredLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := map[string]interface{}{
			"timestamp":      start.Format(time.RFC3339),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         c.Writer.Status(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"remote_addr":    c.ClientIP(),
			"request_id":     c.GetString(RequestIDKey),
			"user_agent":     c.Request.UserAgent(),
			"content_length": c.Request.ContentLength,
		}
		line, _ := json.Marshal(entry)
		log.Println(string(line))
	}
}

func formatJSON(data []byte) string {
	var obj interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		if pretty, err := json.MarshalIndent(obj, "", "  "); err == nil {
			return string(pretty)
		}
	}
	return string(data)
}
