package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/s2eweb/s2eweb/internal/httputil"
)

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter is a per-client token bucket. Form posts and login attempts share
// the device with the serial sessions, so both are throttled.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		rate:     requestsPerSecond,
		burst:    float64(burst),
	}
}

func (l *Limiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, exists := l.visitors[client]
	if !exists {
		l.visitors[client] = &visitor{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	v.tokens += now.Sub(v.lastSeen).Seconds() * l.rate
	v.lastSeen = now
	if v.tokens > l.burst {
		v.tokens = l.burst
	}

	if v.tokens < 1 {
		return false
	}

	v.tokens--
	return true
}

func (l *Limiter) sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for client, v := range l.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(l.visitors, client)
		}
	}
}

// Run forgets idle clients until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(10 * time.Minute)
		}
	}
}

// ClientIP prefers the first X-Forwarded-For hop and otherwise strips the
// port from RemoteAddr.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(ClientIP(r)) {
			w.Header().Set("Retry-After", "10")
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
