package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry is returned by a polled function to ask for one more attempt.
var ErrRetry = errors.New("retry")

// ErrExhausted is returned when a Limited Backoff runs out of attempts.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Backoff is a (blocking) function returns when to retry.
//
// # Args
//
// - context: context. If context is canceled, Backoff should return ctx.Err().
//
// # Returns
//
// - error: nil if retry, non-nil if not.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff function that waits for a fixed interval.
//
// # Args
//
// - interval: interval to wait.
//
// # Returns
//
// Backoff function, which waits for `interval` or for context to be done.
var StaticBackoff = func(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1)
}

// ExponentialBackoff returns a Backoff function that waits with exponential backoff.
//
// # Args
//
// - initialInterval: initial interval.
//
// - r: multiplier of interval.
//
// # Returns
//
// Backoff function.
// For N-th call, it waits for `initialInterval * r^N` or context to be done.
var ExponentialBackoff = func(initialInterval time.Duration, r float64) Backoff {
	interval := initialInterval
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			i := float64(interval) * r
			interval = time.Duration(int64(i))
			return nil
		}
	}
}

// Limited caps the number of attempts a Blocking loop can make with b.
//
// # Args
//
// - b: backoff to wait with between attempts.
//
// - attempts: how many times the polled function may be called in total.
//
// # Returns
//
// Backoff which returns ErrExhausted, without waiting,
// once the polled function has been called `attempts` times.
func Limited(b Backoff, attempts int) Backoff {
	waited := 0
	return func(ctx context.Context) error {
		waited += 1
		if attempts <= waited {
			return ErrExhausted
		}
		return b(ctx)
	}
}

// Blocking calls f until it returns nil or non-retry error.
//
// f is called at once, and then after each backoff.
//
// # Args
//
// - ctx: context
//
// - b: backoff function
//
// - f: function to be called. If f returns ErrRetry, Blocking calls f again after backoff.
//
// # Returns
//
// - T: last return value of f
//
// - error: error returned by f, or by b when it stops the loop.
func Blocking[T any](ctx context.Context, b Backoff, f func(context.Context) (T, error)) (T, error) {
	for {
		last, err := f(ctx)
		if err == nil {
			return last, nil
		}
		if !errors.Is(err, ErrRetry) {
			return last, err
		}
		if err := b(ctx); err != nil {
			return last, err
		}
	}
}
