// Package ratelimit guards expensive endpoints (chiefly /solve) with a
// per-IP token bucket, using golang.org/x/time/rate, with the same
// trusted-proxy-aware X-Forwarded-For handling the platform this engine was
// adapted from uses.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"timetable-engine/pkg/response"
)

// entry pairs a limiter with the time it was last touched, so Cleanup can
// evict IPs that have gone quiet.
type entry struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// IPRateLimiter hands out and tracks one rate.Limiter per client IP.
type IPRateLimiter struct {
	mu             sync.RWMutex
	ips            map[string]*entry
	r              rate.Limit
	b              int
	trustedProxies map[string]bool
	ttl            time.Duration
	stopChan       chan struct{}
}

// New creates a limiter allowing r events per second with burst b.
func New(r rate.Limit, b int) *IPRateLimiter {
	return NewWithTrustedProxies(r, b, nil)
}

// NewWithTrustedProxies is like New but only trusts X-Forwarded-For when the
// direct connection comes from one of trustedProxies (each optionally
// "host:port").
func NewWithTrustedProxies(r rate.Limit, b int, trustedProxies []string) *IPRateLimiter {
	proxies := make(map[string]bool, len(trustedProxies))
	for _, proxy := range trustedProxies {
		host, _, err := net.SplitHostPort(proxy)
		if err != nil {
			host = proxy
		}
		if parsed := net.ParseIP(strings.TrimSpace(host)); parsed != nil {
			proxies[parsed.String()] = true
		}
	}

	l := &IPRateLimiter{
		ips:            make(map[string]*entry),
		r:              r,
		b:              b,
		trustedProxies: proxies,
		ttl:            time.Hour,
		stopChan:       make(chan struct{}, 1),
	}
	l.startCleanup(5 * time.Minute)
	return l
}

// GetLimiter returns the rate.Limiter for ip, creating one on first use.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	e, ok := l.ips[ip]
	if ok {
		e.lastAccessed = time.Now()
		limiter := e.limiter
		l.mu.Unlock()
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.ips[ip] = &entry{limiter: limiter, lastAccessed: time.Now()}
	l.mu.Unlock()
	return limiter
}

// CleanupExpired evicts limiters untouched for longer than the TTL.
func (l *IPRateLimiter) CleanupExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, e := range l.ips {
		if now.Sub(e.lastAccessed) > l.ttl {
			delete(l.ips, ip)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(l.ips)).Msg("rate limiter cleanup")
	}
}

// Stop terminates the background cleanup goroutine. Call it on shutdown.
// Safe to call more than once.
func (l *IPRateLimiter) Stop() {
	select {
	case l.stopChan <- struct{}{}:
	default:
	}
}

func (l *IPRateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.CleanupExpired()
			case <-l.stopChan:
				return
			}
		}
	}()
}

func isValidIP(s string) bool {
	return s != "" && net.ParseIP(s) != nil
}

// clientIP extracts the caller's address, trusting X-Forwarded-For/X-Real-IP
// only when the direct connection is a known proxy. Reading the rightmost
// untrusted hop of X-Forwarded-For (rather than the leftmost, attacker
// controlled, one) prevents a client from spoofing its way past the limiter.
func clientIP(r *http.Request, trustedProxies map[string]bool) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	if len(trustedProxies) == 0 || !trustedProxies[directIP] {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(hops[i])
			if !isValidIP(candidate) {
				continue
			}
			if trustedProxies[candidate] {
				continue
			}
			return candidate
		}
		return directIP
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" && isValidIP(xrip) {
		return xrip
	}

	return directIP
}

// Middleware rejects requests once the caller's IP has exhausted its
// bucket, responding 429 via pkg/response.
func Middleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, limiter.trustedProxies)
			if !limiter.GetLimiter(ip).Allow() {
				response.TooManyRequests(w, "rate limit exceeded, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SolveLimiter returns the limiter used in front of POST /solve: 10 requests
// per minute per IP, matching the login limiter's shape in the platform
// this engine descends from.
func SolveLimiter(trustedProxies []string) *IPRateLimiter {
	return NewWithTrustedProxies(rate.Every(6*time.Second), 10, trustedProxies)
}
