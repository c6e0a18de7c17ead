package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("DisabledWhenNotPositive", func(t *testing.T) {
		if rl := newRateLimiter(0, time.Minute); rl != nil {
			t.Fatalf("newRateLimiter(0) = %v, want nil", rl)
		}
		var rl *rateLimiter
		if err := rl.wait(ctx); err != nil {
			t.Errorf("nil wait() error = %v, want nil", err)
		}
	})

	t.Run("AllowsRequestsWithinLimit", func(t *testing.T) {
		rl := newRateLimiter(5, time.Second)

		start := time.Now()
		for i := 0; i < 5; i++ {
			if err := rl.wait(ctx); err != nil {
				t.Errorf("wait() request %d error = %v, want nil", i+1, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("5 requests under limit took %v, expected < 100ms", elapsed)
		}
	})

	t.Run("RespectsSlidingWindow", func(t *testing.T) {
		rl := newRateLimiter(3, 300*time.Millisecond)

		start := time.Now()
		for i := 0; i < 4; i++ {
			if err := rl.wait(ctx); err != nil {
				t.Errorf("wait() request %d error = %v", i+1, err)
			}
		}

		elapsed := time.Since(start)
		if elapsed < 300*time.Millisecond {
			t.Errorf("4th request took %v, expected at least 300ms", elapsed)
		}
		if elapsed > 450*time.Millisecond {
			t.Errorf("4th request took %v, expected around 300ms", elapsed)
		}
	})

	t.Run("CleansUpOldRequests", func(t *testing.T) {
		rl := newRateLimiter(3, 200*time.Millisecond)
		for i := 0; i < 3; i++ {
			if err := rl.wait(ctx); err != nil {
				t.Errorf("wait() initial request %d error = %v", i+1, err)
			}
		}

		time.Sleep(250 * time.Millisecond)

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := rl.wait(ctx); err != nil {
				t.Errorf("wait() after window request %d error = %v", i+1, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("Requests after window took %v, expected < 100ms", elapsed)
		}
	})

	t.Run("ConcurrentRequests", func(t *testing.T) {
		rl := newRateLimiter(10, 200*time.Millisecond)

		var wg sync.WaitGroup
		var succeeded atomic.Int32
		for i := 0; i < 15; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := rl.wait(ctx); err == nil {
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		if got := succeeded.Load(); got != 15 {
			t.Errorf("%d concurrent requests succeeded, want 15", got)
		}
	})

	t.Run("StopsOnContextDone", func(t *testing.T) {
		rl := newRateLimiter(1, time.Minute)
		if err := rl.wait(ctx); err != nil {
			t.Fatalf("wait() first request error = %v", err)
		}

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := rl.wait(short)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("wait() error = %v, want deadline exceeded", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("wait() returned after %v, want prompt return", elapsed)
		}
	})
}
