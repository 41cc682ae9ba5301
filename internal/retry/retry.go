// Package retry wraps fallible operations with bounded retries and
// exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule. It holds no mutable state, so a
// single value may be shared across any number of concurrent Do calls.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// Delay returns the wait inserted after attempt i (0-indexed) fails:
// BaseDelay × Multiplier^i. A multiplier below 1 is treated as 1.
func (p Policy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= mult
	}

	return time.Duration(d)
}

// OnRetry is called with every failed attempt, so earlier errors stay
// observable even though only the final one is returned.
type OnRetry func(attempt int, err error)

// Do calls op up to p.MaxAttempts times, waiting p.Delay(i) after failed
// attempt i. The wait suspends only this invocation. If all attempts fail,
// the error of the final attempt is returned. Do performs no effect
// deduplication; op must be safe to repeat.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), onRetry OnRetry) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err

		if onRetry != nil {
			onRetry(attempt, err)
		}

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Run is Do for operations with no result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry OnRetry) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, onRetry)

	return err
}
