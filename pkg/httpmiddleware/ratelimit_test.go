package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	ok, reset := l.Allow("a", start)
	assert.True(t, ok)
	assert.Equal(t, start.Add(time.Minute), reset)
	ok, _ = l.Allow("a", start.Add(time.Second))
	assert.True(t, ok)
	ok, _ = l.Allow("a", start.Add(2*time.Second))
	assert.False(t, ok, "over limit")

	ok, _ = l.Allow("b", start.Add(2*time.Second))
	assert.True(t, ok, "keys are independent")

	// Half way through the next window the previous two count as one.
	ok, _ = l.Allow("a", start.Add(90*time.Second))
	assert.True(t, ok)
	ok, _ = l.Allow("a", start.Add(90*time.Second))
	assert.False(t, ok)

	// Two windows later everything is forgotten.
	ok, _ = l.Allow("a", start.Add(4*time.Minute))
	assert.True(t, ok)
}

func TestLimiter_Prune(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	l.Allow("a", start)
	l.Prune(start.Add(3 * time.Minute))
	assert.Empty(t, l.windows)
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Limiter: NewLimiter(1, time.Hour),
		Key:     func(r *http.Request) string { return r.Header.Get("X-Customer-Email") },
		Reject: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}),
	})(okHandler())

	do := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders/place", nil)
		req.Header.Set("X-Customer-Email", email)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, do("alice@example.com").Code)
	w := do("alice@example.com")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do("bob@example.com").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded list", header: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, want: "203.0.113.5"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.7"}, want: "198.51.100.7"},
		{name: "remote addr", remote: "192.0.2.1:4321", want: "192.0.2.1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
