package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	burstMultiplier = 2
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 1 * time.Hour
)

// RateLimiter allows or rejects a request from a given remote address.
type RateLimiter interface {
	Allow(remoteAddr string) bool
	Close()
}

type perAddressLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// InMemoryRateLimiter is a per-remote-address token bucket, matching the
// operator convenience scope of the status API (spec.md §4.5): it is not
// meant to survive process restarts or coordinate across nodes.
type InMemoryRateLimiter struct {
	rps   float64
	burst int

	mu       sync.Mutex
	limiters map[string]*perAddressLimiter

	done chan struct{}
}

// NewInMemoryRateLimiter builds a limiter allowing rps requests per second
// per remote address, with a periodic cleanup of idle addresses.
func NewInMemoryRateLimiter(rps float64) *InMemoryRateLimiter {
	rl := &InMemoryRateLimiter{
		rps:      rps,
		burst:    int(rps * burstMultiplier),
		limiters: make(map[string]*perAddressLimiter),
		done:     make(chan struct{}),
	}

	if rl.burst < 1 {
		rl.burst = 1
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *InMemoryRateLimiter) Allow(remoteAddr string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[remoteAddr]

	if !ok {
		entry = &perAddressLimiter{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.limiters[remoteAddr] = entry
	}

	entry.lastAccess = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

func (rl *InMemoryRateLimiter) Close() {
	close(rl.done)
}

func (rl *InMemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *InMemoryRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for addr, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > idleTimeout {
			delete(rl.limiters, addr)
		}
	}
}

// RateLimit rejects requests exceeding limiter's per-address budget with a
// 429 Problem Detail.
func RateLimit(limiter RateLimiter) Option {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.Allow(host) {
				WriteProblem(w, r, http.StatusTooManyRequests, "Too Many Requests",
					"rate limit exceeded, retry later")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
