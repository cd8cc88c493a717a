package inmem_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"college/internal/gateway/adapter/inmem"
)

func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}

func TestTokenBucketAllowsBurst(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(10, 5, fixedClock(&now))

	for i := range 5 {
		if !rl.Allow(ctx, "ip:10.0.0.1").Allowed {
			t.Errorf("request %d should be allowed within burst", i)
		}
	}

	result := rl.Allow(ctx, "ip:10.0.0.1")
	if result.Allowed {
		t.Error("request 6 should be denied (burst exhausted)")
	}
	if result.RetryAfter <= 0 {
		t.Error("expected positive RetryAfter")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(10, 2, fixedClock(&now))

	rl.Allow(ctx, "key")
	rl.Allow(ctx, "key")
	if rl.Allow(ctx, "key").Allowed {
		t.Error("should be denied after burst")
	}

	// 10/sec * 0.2s = 2 tokens
	now = now.Add(200 * time.Millisecond)

	if !rl.Allow(ctx, "key").Allowed {
		t.Error("should be allowed after refill")
	}
}

func TestTokenBucketSeparateKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(10, 1, fixedClock(&now))

	rl.Allow(ctx, "ip:1.1.1.1")
	if rl.Allow(ctx, "ip:1.1.1.1").Allowed {
		t.Error("first key should be denied")
	}
	if !rl.Allow(ctx, "login:1.1.1.1").Allowed {
		t.Error("a different key must have its own bucket")
	}
}

func TestTokenBucketDoesNotExceedBurst(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(10, 3, fixedClock(&now))

	rl.Allow(ctx, "key")
	now = now.Add(time.Second)

	allowed := 0
	for range 10 {
		if rl.Allow(ctx, "key").Allowed {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected 3 allowed (burst cap), got %d", allowed)
	}
}

func TestWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewWindowLimiter(10, time.Minute, fixedClock(&now))

	for i := range 10 {
		if !rl.Allow(ctx, "login:10.0.0.9").Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	result := rl.Allow(ctx, "login:10.0.0.9")
	if result.Allowed {
		t.Fatal("11th attempt in the window should be denied")
	}
	// One token at 10/min takes about 6s.
	if result.RetryAfter < 6 || result.RetryAfter > 7 {
		t.Errorf("expected RetryAfter of about 6s, got %d", result.RetryAfter)
	}

	now = now.Add(7 * time.Second)
	if !rl.Allow(ctx, "login:10.0.0.9").Allowed {
		t.Error("one attempt should be available again after 7s")
	}
}

func TestTokenBucketConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 10, fixedClock(&now))

	var wg sync.WaitGroup
	results := make([]bool, 100)
	for i := range 100 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = rl.Allow(ctx, "same-key").Allowed
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("concurrent access: expected 10 allowed, got %d", allowed)
	}
}

func TestTokenBucketConcurrentCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(100, 5, fixedClock(&now))

	for i := range 20 {
		rl.Allow(ctx, fmt.Sprintf("key-%d", i))
	}
	now = now.Add(11 * time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rl.Allow(ctx, "concurrent-key")
		}()
		go func() {
			defer wg.Done()
			rl.Cleanup()
		}()
	}
	wg.Wait()
}

func TestTokenBucketCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := inmem.NewRateLimiter(10, 5, fixedClock(&now))

	rl.Allow(ctx, "key1")
	rl.Allow(ctx, "key2")
	rl.Allow(ctx, "key3")
	if rl.BucketCount() != 3 {
		t.Errorf("expected 3 buckets, got %d", rl.BucketCount())
	}

	now = now.Add(11 * time.Minute)
	rl.Cleanup()

	if rl.BucketCount() != 0 {
		t.Errorf("expected 0 buckets after cleanup, got %d", rl.BucketCount())
	}
}

func TestRunStopsWithContext(t *testing.T) {
	rl := inmem.NewRateLimiter(10, 5, time.Now)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
