package redislimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"college/internal/gateway"
)

const keyPrefix = "college:ratelimit:"

// Limiter is a fixed-window counter kept in Redis so that every replica
// enforces the same budget. Redis errors fail open.
type Limiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// New allows limit requests per key in each window.
func New(client redis.Cmdable, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{client: client, limit: int64(limit), window: window, logger: logger}
}

// Connect creates a client for addr and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redislimit: ping: %w", err)
	}
	return client, nil
}

// Allow counts one request against key's current window.
func (l *Limiter) Allow(ctx context.Context, key string) gateway.RateLimitResult {
	k := keyPrefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request", "key", key, "error", err)
		return gateway.RateLimitResult{Allowed: true}
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			l.logger.Warn("setting rate limit window", "key", key, "error", err)
		}
	}
	if count <= l.limit {
		return gateway.RateLimitResult{Allowed: true}
	}

	return gateway.RateLimitResult{Allowed: false, RetryAfter: l.retryAfter(ctx, k)}
}

// retryAfter reads the window's remaining TTL, repairing a key that lost
// its expiry.
func (l *Limiter) retryAfter(ctx context.Context, k string) int {
	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return max(int(l.window.Seconds()), 1)
	}
	if ttl < 0 {
		_ = l.client.Expire(ctx, k, l.window).Err()
		ttl = l.window
	}
	return max(int(math.Ceil(ttl.Seconds())), 1)
}
