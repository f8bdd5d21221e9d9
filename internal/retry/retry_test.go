package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{InitialInterval: time.Millisecond, BackoffCoefficient: 2, MaximumInterval: 5 * time.Millisecond, MaximumAttempts: attempts}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	out := Do(context.Background(), fastPolicy(5), func(ctx context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, func(attempt int, err error) { retried = append(retried, attempt) })

	require.True(t, out.Succeeded())
	require.False(t, out.Exhausted())
	require.Equal(t, "ok", out.Value)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, retried)
}

func TestDoExhausts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	out := Do(context.Background(), fastPolicy(3), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, boom
	}, nil)

	require.True(t, out.Exhausted())
	require.ErrorIs(t, out.Err, ErrExhausted)
	require.ErrorIs(t, out.Err, boom)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, 3, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	out := Do(context.Background(), Policy{}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("no")
	}, nil)
	require.Equal(t, 1, calls)
	require.True(t, out.Exhausted())
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{InitialInterval: time.Hour, MaximumAttempts: 10}
	out := Do(ctx, p, func(ctx context.Context, attempt int) (int, error) {
		cancel()
		return 0, errors.New("fail")
	}, nil)
	require.ErrorIs(t, out.Err, context.Canceled)
	require.False(t, out.Exhausted())
	require.Equal(t, 1, out.Attempts)
}

func TestBackoff(t *testing.T) {
	p := Policy{InitialInterval: 10 * time.Millisecond, BackoffCoefficient: 2, MaximumInterval: 50 * time.Millisecond}
	require.Equal(t, 10*time.Millisecond, p.Backoff(1))
	require.Equal(t, 20*time.Millisecond, p.Backoff(2))
	require.Equal(t, 40*time.Millisecond, p.Backoff(3))
	require.Equal(t, 50*time.Millisecond, p.Backoff(4))
	require.Equal(t, 50*time.Millisecond, p.Backoff(9))
}

func TestDoCanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	out := Do(ctx, fastPolicy(3), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 1, nil
	}, nil)
	require.ErrorIs(t, out.Err, context.Canceled)
	require.Zero(t, calls)
	require.Zero(t, out.Attempts)
}
