package reactions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
)

type contextKey int

const userHashKey contextKey = iota

const identityCookie = "rxid"

// Identity derives a stable per-user hash from connection fingerprint
// headers and sets a long-lived opaque cookie for returning visitors. The
// hash, not the cookie, identifies the user in storage.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := checksum.Sum([]byte(clientIP(r) + ":" +
			headerOr(r, "User-Agent", "unknown") + ":" +
			headerOr(r, "Accept-Language", "unknown") + ":" +
			headerOr(r, "Time-Zone", "UTC")))

		if _, err := r.Cookie(identityCookie); err != nil {
			http.SetCookie(w, &http.Cookie{
				Name:     identityCookie,
				Value:    newCookieValue(),
				Path:     "/",
				MaxAge:   30 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), userHashKey, hash)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserHash returns the identity hash stored by the Identity middleware.
func UserHash(r *http.Request) string {
	hash, _ := r.Context().Value(userHashKey).(string)
	return hash
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}

func headerOr(r *http.Request, name, fallback string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return fallback
}

func newCookieValue() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(buf)
}

// RateLimiter bounds requests per client key within a fixed window. All of
// its state is explicit and instance-scoped, so independent servers never
// share counters.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	clients map[string]*clientWindow
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter allows max requests per key per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
}

// Allow records one request for key and reports whether it fits the window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	current, ok := l.clients[key]
	if !ok || now.After(current.resetAt) {
		l.clients[key] = &clientWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	current.count++
	return current.count <= l.max
}

// Middleware rejects over-limit requests with 429, keyed by client IP.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorBody(apperr.ErrRateLimited.Error()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
