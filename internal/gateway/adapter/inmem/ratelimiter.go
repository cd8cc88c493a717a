package inmem

import (
	"context"
	"math"
	"sync"
	"time"

	"college/internal/gateway"
)

const staleThreshold = 10 * time.Minute

// RateLimiter is a per-key token bucket kept in process memory. It is the
// fallback when no Redis address is configured.
type RateLimiter struct {
	rate  float64 // tokens per second
	burst int     // bucket capacity
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter.
// rate is tokens per second, burst is the maximum bucket capacity.
// clock is injectable for deterministic testing.
func NewRateLimiter(rate float64, burst int, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		burst:   burst,
		now:     clock,
		buckets: make(map[string]*bucket),
	}
}

// NewWindowLimiter allows limit requests per window with the whole window's
// allowance available as a burst.
func NewWindowLimiter(limit int, window time.Duration, clock func() time.Time) *RateLimiter {
	return NewRateLimiter(float64(limit)/window.Seconds(), limit, clock)
}

// Allow takes one token from key's bucket. It never blocks, so ctx is unused.
func (rl *RateLimiter) Allow(_ context.Context, key string) gateway.RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate, float64(rl.burst))
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return gateway.RateLimitResult{Allowed: true}
	}

	deficit := 1.0 - b.tokens
	return gateway.RateLimitResult{
		Allowed:    false,
		RetryAfter: max(int(math.Ceil(deficit/rl.rate)), 1),
	}
}

// Cleanup removes stale buckets that haven't been seen recently.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > staleThreshold {
			delete(rl.buckets, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// BucketCount returns the number of active buckets (for testing).
func (rl *RateLimiter) BucketCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
