package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewLimiter(2, time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewLimiter(1, time.Second)
	l.now = func() time.Time { return now }
	l.Allow("a")

	now = now.Add(3 * time.Second)
	l.sweep(now)
	assert.Empty(t, l.buckets)
}

func TestRateLimit(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	h := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(path, remote, fwd string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		if fwd != "" {
			req.Header.Set("X-Forwarded-For", fwd)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/api/v1/stats", "10.0.0.1:1234", "").Code)
	rec := do("/api/v1/stats", "10.0.0.1:5678", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, do("/health/ready", "10.0.0.1:1", "").Code)
	assert.Equal(t, http.StatusOK, do("/api/v1/stats", "10.0.0.1:1", "192.0.2.7, 10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, do("/api/v1/stats", "10.0.0.9:1", "192.0.2.7").Code)
}
