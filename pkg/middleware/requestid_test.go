package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	return r
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	r := newRequestIDRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	header := w.Header().Get(RequestIDKey)
	if header == "" {
		t.Fatal("expected a generated request ID header")
	}
	if w.Body.String() != header {
		t.Fatalf("expected handler to see the same ID as the response header, got %q vs %q", w.Body.String(), header)
	}
}

func TestRequestIDPreservesIncoming(t *testing.T) {
	r := newRequestIDRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDKey, "caller-supplied-id")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDKey); got != "caller-supplied-id" {
		t.Fatalf("expected incoming request ID to be preserved, got %q", got)
	}
}
