package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// secondsPerMinute converts a per-minute rate into a per-second rate.
const secondsPerMinute = 60

// loginLimiter throttles credential attempts per client IP. Entries idle
// for longer than limiterIdleTTL are dropped by the sweep loop so the map
// does not grow without bound.
type loginLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newLoginLimiter(requestsPerMinute, burst int) *loginLimiter {
	return &loginLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(requestsPerMinute) / secondsPerMinute),
		burst:   burst,
	}
}

// allow reports whether the client identified by ip may attempt a login.
func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// sweep removes limiters that have been idle past limiterIdleTTL.
func (l *loginLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-limiterIdleTTL)
	for ip, entry := range l.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// rateLimitLogin applies the per-IP login limiter when enabled.
func (s *Server) rateLimitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.loginLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if !s.loginLimiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote host, falling back to the raw RemoteAddr
// if it does not parse as host:port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
