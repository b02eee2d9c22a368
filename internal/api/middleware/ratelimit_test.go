package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpal/pollenpal/internal/api/middleware"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func serveFrom(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_AllowsWithinLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 5,
		WindowLength: time.Minute,
	})(http.HandlerFunc(okHandler))

	for i := 0; i < 5; i++ {
		rec := serveFrom(handler, "/pollen/london", "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
	}
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: 90 * time.Second,
	})(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		rec := serveFrom(handler, "/pollen/london", "10.0.0.1:12345")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serveFrom(handler, "/pollen/london", "10.0.0.1:12345")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimitByIP_DifferentIPsHaveSeparateLimits(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(http.HandlerFunc(okHandler))

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, serveFrom(handler, "/pollen/leeds", "172.16.0.1:12345").Code)
	}

	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, "/pollen/leeds", "172.16.0.1:12345").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "/pollen/leeds", "172.16.0.2:12345").Code)
}

func TestRateLimitByIP_ProblemResponse(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{
			RequestLimit: 1,
			WindowLength: time.Minute,
		})(http.HandlerFunc(okHandler)),
	)

	require.Equal(t, http.StatusOK, serveFrom(handler, "/pollen/york", "203.0.113.1:12345").Code)
	rec := serveFrom(handler, "/pollen/york", "203.0.113.1:12345")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["type"], "too-many-requests")
	assert.Equal(t, "/pollen/york", problem["instance"])
	assert.Equal(t, rec.Header().Get("X-Request-Id"), problem["traceId"])
}

func TestPollenRateLimit(t *testing.T) {
	assert.Equal(t, 30, middleware.PollenRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.PollenRateLimit.WindowLength)
}
