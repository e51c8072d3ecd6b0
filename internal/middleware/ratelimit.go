package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/codeverse-ai/codeverse/internal/config"
)

// maxClients caps the number of tracked client IPs so a scan across many
// source addresses cannot grow the map without bound.
const maxClients = 100000

// RateLimiter throttles requests per client IP with a token bucket.
// Generation and transcription hand each request to a paid upstream
// provider, so the whole API sits behind this limiter rather than just
// the expensive routes.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     float64
	burst   int
}

// client is one IP's bucket. seenAt is for idle eviction, refilledAt for
// token accounting.
type client struct {
	tokens     float64
	seenAt     time.Time
	refilledAt time.Time
}

// NewRateLimiter builds a limiter from the rate section of the config:
// cfg.RequestsPerSecond sustained, cfg.Burst peak.
func NewRateLimiter(cfg config.Rate) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		rps:     cfg.RequestsPerSecond,
		burst:   cfg.Burst,
	}
}

// Handler returns middleware that rejects over-limit requests with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, retryAfter, allowed := rl.take(clientIP(r))

		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Second).Unix()))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take spends one token for ip. It reports the tokens left, the seconds
// until the next token when rejected, and whether the request may proceed.
func (rl *RateLimiter) take(ip string) (remaining int, retryAfter float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok {
		if len(rl.clients) >= maxClients {
			// At capacity; reject rather than evict under the lock.
			return 0, 1.0 / rl.rps, false
		}
		c = &client{
			tokens:     float64(rl.burst) - 1,
			seenAt:     now,
			refilledAt: now,
		}
		rl.clients[ip] = c
		return int(c.tokens), 0, true
	}

	elapsed := now.Sub(c.refilledAt).Seconds()
	c.tokens = math.Min(c.tokens+elapsed*rl.rps, float64(rl.burst))
	c.refilledAt = now
	c.seenAt = now

	if c.tokens < 1 {
		return 0, (1 - c.tokens) / rl.rps, false
	}

	c.tokens--
	return int(c.tokens), 0, true
}

// StartCleanup evicts clients idle longer than maxIdle, checking every
// interval. The returned func stops the goroutine.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.evictIdle(maxIdle)
			}
		}
	}()
	return cancel
}

func (rl *RateLimiter) evictIdle(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for ip, c := range rl.clients {
		if c.seenAt.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Len reports the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP keys the bucket by RemoteAddr. X-Forwarded-For and X-Real-Ip
// are attacker-controlled and would let one client rotate buckets freely.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
