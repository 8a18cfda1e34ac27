package sync

import (
	"context"
	"time"
)

// Backoff runs an operation with bounded retries and a pluggable delay
// function. Used uniformly for remote dispatch instead of hand-rolled
// timer loops.
type Backoff struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
}

// LinearBackoff returns a delay function of base * attempt.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Do invokes fn until it succeeds, the attempt budget is spent, or the
// context is cancelled. The delay function is consulted between attempts
// with the 1-based number of the attempt that just failed.
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		var wait time.Duration
		if b.Delay != nil {
			wait = b.Delay(attempt)
		}
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
