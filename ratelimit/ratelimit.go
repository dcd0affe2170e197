// Package ratelimit provides keyed token-bucket rate limiting for HTTP
// handlers. Requests are keyed by the X-User-Id header set by the
// gateway's forwardAuth middleware, falling back to the caller's remote
// address for anonymous traffic.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Buckets idle past idleTimeout are dropped so anonymous traffic keyed
// by remote IP cannot grow the key map without bound. Evicting a bucket
// resets its burst allowance, which is acceptable at this timescale.
const (
	idleTimeout   = 10 * time.Minute
	sweepInterval = time.Minute
)

// Config controls a [Limiter].
type Config struct {
	// RPS is the sustained request rate permitted per key.
	RPS float64
	// Burst is the number of requests a key may make at once.
	Burst int
	// Enabled toggles limiting; when false every request passes.
	Enabled bool
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter dispenses one token bucket per key, dropping buckets that go
// unused. It is safe for concurrent use.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether a single request for key may proceed.
func (l *Limiter) Allow(key string) bool {
	if !l.cfg.Enabled {
		return true
	}
	now := l.now()

	l.mu.Lock()
	if now.After(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(sweepInterval)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.lim.Allow()
}

// sweep drops idle buckets. Callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTimeout {
			delete(l.buckets, key)
		}
	}
}

// Middleware wraps next with per-key rate limiting. Rejected requests
// receive 429 with a JSON body.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(Key(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Key extracts the rate-limit key from a request: the X-User-Id header
// when present (authenticated user), otherwise the remote IP.
func Key(r *http.Request) string {
	if userID := r.Header.Get("X-User-Id"); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
