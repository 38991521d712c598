package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"genesis-api/pkg/apierror"
)

const AuthPathPrefix = "/auth"

// Limiter decides whether one more request fits key's per-minute budget.
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

// RateLimitMiddleware applies per-client budgets. Requests under AuthPathPrefix
// draw from a separate, stricter budget.
type RateLimitMiddleware struct {
	limiter    Limiter
	generalRPM int
	authRPM    int
	exempt     []string
}

// NewRateLimitMiddleware falls back to an in-process limiter when limiter is nil.
func NewRateLimitMiddleware(limiter Limiter, generalRPM int, authRPM int, exempt ...string) *RateLimitMiddleware {
	if limiter == nil {
		limiter = NewLocalLimiter()
	}
	if generalRPM <= 0 {
		generalRPM = 100
	}
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		limiter:    limiter,
		generalRPM: generalRPM,
		authRPM:    authRPM,
		exempt:     exempt,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		for _, prefix := range m.exempt {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		bucket, limit := "general", m.generalRPM
		if strings.HasPrefix(path, AuthPathPrefix+"/") {
			bucket, limit = "auth", m.authRPM
		}

		allowed, err := m.limiter.Allow(r.Context(), bucket+":"+extractClientIP(r), limit)
		if err != nil {
			// fail open
			slog.Warn("rate limiter unavailable", "error", err, "request_id", RequestIDFromContext(r.Context()))
			allowed = true
		}

		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeFailure(w, r, http.StatusTooManyRequests, apierror.CodeRateLimited, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{entries: map[string]*localEntry{}}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, perMinute int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[key]
	if !exists {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)}
		l.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	l.gcLocked()

	return entry.limiter.Allow(), nil
}

func (l *LocalLimiter) gcLocked() {
	if len(l.entries) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

func extractClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
