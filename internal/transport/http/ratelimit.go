package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"fleet-telemetry/backend/internal/metrics"
)

// rateLimiter is a per-IP fixed-window counter. Windows reset in place;
// stale visitors are pruned lazily whenever the map grows past
// pruneThreshold.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*window
	limit    int
	interval time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

const pruneThreshold = 1000

func newRateLimiter(limit int, interval time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*window),
		limit:    limit,
		interval: interval,
	}
}

// allow reports whether the request fits in the caller's current window
// and, when it does not, how long until the window resets.
func (rl *rateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.visitors[ip]
	if !ok || now.After(w.resetAt) {
		if len(rl.visitors) > pruneThreshold {
			for k, v := range rl.visitors {
				if now.After(v.resetAt) {
					delete(rl.visitors, k)
				}
			}
		}
		rl.visitors[ip] = &window{count: 1, resetAt: now.Add(rl.interval)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}
	w.count++
	return true, 0
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := rl.allow(clientIP(r))
		if !ok {
			metrics.RateLimited.Inc()
			secs := int(retryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// wrap applies the limiter to a plain handler func.
func (rl *rateLimiter) wrap(h http.HandlerFunc) http.Handler {
	return rl.middleware(h)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limiters holds one fixed-window counter per traffic tier.
type limiters struct {
	general *rateLimiter // everything
	read    *rateLimiter // GETs
	create  *rateLimiter // POSTs
	update  *rateLimiter // PUTs
	delete  *rateLimiter // DELETEs
	health  *rateLimiter // health probes
}

func newLimiters() *limiters {
	return &limiters{
		general: newRateLimiter(500, 15*time.Minute),
		read:    newRateLimiter(200, time.Minute),
		create:  newRateLimiter(20, 5*time.Minute),
		update:  newRateLimiter(30, 5*time.Minute),
		delete:  newRateLimiter(5, 10*time.Minute),
		health:  newRateLimiter(60, time.Minute),
	}
}
