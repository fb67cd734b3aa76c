package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidLimit is returned when the per-window request budget is not
// positive.
var ErrInvalidLimit = errors.New("rate limit must be positive")

// Window is the rolling window the request budget applies to.
const Window = time.Minute

// Clock abstracts time for the limiter so tests can advance a fake clock
// instead of sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that fires after d.
	After(d time.Duration) <-chan time.Time
}

// systemClock is the production Clock backed by the time package.
type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Limiter grants permission to issue requests, guaranteeing at most limit
// grants per rolling Window. It is safe for concurrent callers; waiting
// goroutines are serialized on the internal mutex so the budget holds
// regardless of worker count.
//
// The limiter is an explicitly owned component injected into the fetcher,
// never a process-wide singleton.
type Limiter struct {
	mu sync.Mutex

	// limit is the maximum grants per Window.
	limit int

	// grants holds the times of the most recent grants, oldest first.
	// Capped at limit entries.
	grants []time.Time

	// clock provides the time source.
	clock Clock
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets a custom time source. Used by tests to avoid real sleeps.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

// New creates a Limiter allowing limit requests per rolling 60-second
// window.
func New(limit int, opts ...Option) (*Limiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	l := &Limiter{
		limit:  limit,
		grants: make([]time.Time, 0, limit),
		clock:  systemClock{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Acquire blocks until the caller may issue one request, or until the
// context is cancelled. Every upstream request must pass through here;
// there is no bypass path.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.evict(now)

		if len(l.grants) < l.limit {
			l.grants = append(l.grants, now)
			l.mu.Unlock()
			return nil
		}

		// Window full: the next slot opens when the oldest grant ages out.
		wait := l.grants[0].Add(Window).Sub(now)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(wait):
			// Re-check under the lock; another goroutine may have taken
			// the freed slot while we slept.
		}
	}
}

// evict drops grants older than one Window. Caller holds the mutex.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}

// InFlight returns how many grants are currently inside the rolling
// window. Used by tests to assert rate compliance.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.clock.Now())
	return len(l.grants)
}
