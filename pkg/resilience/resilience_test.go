package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	var changes []string
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(_ string, from, to State) {
			changes = append(changes, from.String()+"->"+to.String())
		},
	})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	fail := func() error { return errBoom }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, changes)
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker("pg", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errBoom })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := Retry(context.Background(), "flaky", cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(context.Background(), "broken", cfg, func(context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)

	calls = 0
	cfg.Retryable = func(err error) bool { return !errors.Is(err, apperrors.ErrInvalidInput) }
	err = Retry(context.Background(), "permanent", cfg, func(context.Context) error {
		calls++
		return apperrors.ErrInvalidInput
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}
	err := Retry(ctx, "cancelled", cfg, func(context.Context) error {
		cancel()
		return errBoom
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeadline(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		fn      func(ctx context.Context) error
		wantErr []error
	}{
		{
			name:    "expired",
			timeout: 10 * time.Millisecond,
			fn: func(ctx context.Context) error {
				<-ctx.Done()
				return fmt.Errorf("reading record: %w", ctx.Err())
			},
			wantErr: []error{apperrors.ErrTimeout, context.DeadlineExceeded},
		},
		{
			name:    "own error",
			timeout: time.Second,
			fn:      func(context.Context) error { return errBoom },
			wantErr: []error{errBoom},
		},
		{
			name:    "no timeout",
			timeout: 0,
			fn: func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); ok {
					return errBoom
				}
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Deadline(context.Background(), tt.timeout, tt.name, tt.fn)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestDeadlineWaitsForReturn(t *testing.T) {
	var returned atomic.Bool
	err := Deadline(context.Background(), 5*time.Millisecond, "load", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		returned.Store(true)
		return ctx.Err()
	})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.True(t, returned.Load(), "fn finished before Deadline returned")
}

func TestDeadlinePassesParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Deadline(ctx, time.Second, "load", func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperrors.ErrTimeout)
}
