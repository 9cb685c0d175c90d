package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter is a sliding window counter per key. The previous window's count
// is weighted by how much of it still overlaps the sliding window.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	prev  int
	curr  int
}

// NewLimiter allows limit requests per key in every period of length per.
func NewLimiter(limit int, per time.Duration) *Limiter {
	return &Limiter{max: limit, window: per, windows: make(map[string]*window)}
}

// Allow records a request for key at now and reports whether it is within
// the limit, and when the current window ends.
func (l *Limiter) Allow(key string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.window)
	w, ok := l.windows[key]
	switch {
	case !ok:
		w = &window{start: start}
		l.windows[key] = w
	case start.Sub(w.start) >= 2*l.window:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.curr}
	}

	reset := w.start.Add(l.window)
	overlap := 1 - float64(now.Sub(w.start))/float64(l.window)
	if float64(w.prev)*overlap+float64(w.curr) >= float64(l.max) {
		return false, reset
	}
	w.curr++
	return true, reset
}

// Prune drops keys idle for more than two windows.
func (l *Limiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.window {
			delete(l.windows, key)
		}
	}
}

// RunPruner prunes l every interval until ctx is done.
func (l *Limiter) RunPruner(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.Prune(now)
		}
	}
}

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Limiter *Limiter
	// Key extracts the limiter key. Defaults to ClientIP.
	Key func(*http.Request) string
	// Reject writes the response for limited requests. Defaults to a plain
	// 429.
	Reject http.Handler
}

// RateLimit rejects requests over the limiter's budget and sets
// Retry-After on rejection.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Key == nil {
		cfg.Key = ClientIP
	}
	if cfg.Reject == nil {
		cfg.Reject = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, reset := cfg.Limiter.Allow(cfg.Key(r), time.Now())
			if !ok {
				wait := math.Ceil(time.Until(reset).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(int(max(wait, 0))))
				cfg.Reject.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For address, X-Real-IP, or the
// remote address host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
