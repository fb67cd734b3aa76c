package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a deterministic Clock. After advances the clock by the
// requested duration and fires immediately, so tests never sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	fired := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- fired
	return ch
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestNew tests limiter construction.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive limit", func(t *testing.T) {
		t.Parallel()

		if _, err := New(0); err == nil {
			t.Error("expected error for limit 0")
		}
		if _, err := New(-1); err == nil {
			t.Error("expected error for negative limit")
		}
	})

	t.Run("accepts positive limit", func(t *testing.T) {
		t.Parallel()

		l, err := New(8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l == nil {
			t.Fatal("expected non-nil limiter")
		}
	})
}

// TestAcquireWithinBudget tests that the first R acquisitions do not block.
func TestAcquireWithinBudget(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l, err := New(8, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := clock.Now()
	for i := 0; i < 8; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	// No blocking means the fake clock never advanced.
	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("clock advanced to %v; first %d acquisitions should not wait", got, 8)
	}
	if got := l.InFlight(); got != 8 {
		t.Errorf("InFlight = %d, want 8", got)
	}
}

// TestAcquireBlocksWhenWindowFull tests that request R+1 waits for the
// oldest grant to age out of the rolling window.
func TestAcquireBlocksWhenWindowFull(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l, err := New(2, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.advance(10 * time.Second)
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := clock.Now()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The third grant must have waited until the first grant (at t=0)
	// left the window, i.e. at least 50 more seconds on the fake clock.
	waited := clock.Now().Sub(before)
	if waited < 50*time.Second {
		t.Errorf("third acquire waited %v, want >= 50s", waited)
	}

	// Rolling-window compliance: never more than 2 grants in flight.
	if got := l.InFlight(); got > 2 {
		t.Errorf("InFlight = %d, exceeds limit 2", got)
	}
}

// TestAcquireRespectsCancellation tests that a blocked Acquire returns
// when the context is cancelled.
func TestAcquireRespectsCancellation(t *testing.T) {
	t.Parallel()

	l, err := New(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exhaust the budget with the real clock.
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Acquire(ctx); err == nil {
		t.Error("expected context error from cancelled Acquire")
	}
}

// TestConcurrentAcquire tests budget compliance under concurrent callers.
func TestConcurrentAcquire(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l, err := New(4, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
			}
			if got := l.InFlight(); got > 4 {
				t.Errorf("InFlight = %d, exceeds limit 4", got)
			}
		}()
	}
	wg.Wait()
}
