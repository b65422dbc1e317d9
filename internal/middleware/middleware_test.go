package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, rate int) (*RateLimiter, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, rate, time.Minute)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_AllowRefill(t *testing.T) {
	rl, now := newLimiter(t, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per key")

	*now = now.Add(time.Minute)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, now := newLimiter(t, 1)
	rl.Allow("10.0.0.1")

	*now = now.Add(4 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newLimiter(t, 1)

	r := gin.New()
	r.POST("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestCacheHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/paper", CacheControl(60), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/state", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paper", nil))
	assert.Equal(t, "private, max-age=60", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestBrotli(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := strings.Repeat(`{"text":"Sebuah benda jatuh bebas dari ketinggian 20 m."}`, 50)

	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 256}))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, body) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())
}
