package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is wrapped by the error of an Outcome whose attempts ran out.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy mirrors the fields of a temporal.RetryPolicy for in-process calls.
type Policy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval:    50 * time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    2 * time.Second,
		MaximumAttempts:    5,
	}
}

// exponential builds the backoff schedule for p without jitter.
func (p Policy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = max(p.BackoffCoefficient, 1)
	b.MaxInterval = p.MaximumInterval
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Backoff returns the wait before attempt n+1 after n failed attempts (n >= 1).
func (p Policy) Backoff(n int) time.Duration {
	b := p.exponential()
	var d time.Duration
	for i := 0; i < n; i++ {
		d = b.NextBackOff()
	}
	return d
}

// Outcome is the typed result of Do.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

func (o Outcome[T]) Succeeded() bool { return o.Err == nil }

// Exhausted reports whether every attempt failed.
func (o Outcome[T]) Exhausted() bool { return errors.Is(o.Err, ErrExhausted) }

// Do calls fn until it succeeds, the attempts run out, or ctx is done.
// MaximumAttempts <= 0 is treated as 1. onRetry, if set, sees every failed
// attempt that will be retried.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error), onRetry func(attempt int, err error)) Outcome[T] {
	limit := p.MaximumAttempts
	if limit <= 0 {
		limit = 1
	}
	attempts := 0
	op := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		attempts++
		return fn(ctx, attempts)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(p.exponential(), uint64(limit-1)), ctx)
	v, err := backoff.RetryNotifyWithData(op, b, func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(attempts, err)
		}
	})
	switch {
	case err == nil:
		return Outcome[T]{Value: v, Attempts: attempts}
	case ctx.Err() != nil:
		return Outcome[T]{Attempts: attempts, Err: ctx.Err()}
	}
	return Outcome[T]{Attempts: attempts, Err: fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)}
}
