package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

// Deadline runs fn on the calling goroutine under a context that expires
// after timeout, so fn must watch ctx. The corpus load and export batches
// both do: the parser checks ctx between records and the sinks pass it to
// their drivers. Nothing is left running when Deadline returns.
//
// When the deadline is what stopped fn the error wraps ErrTimeout as well as
// fn's own error. Cancellation of the parent is returned unchanged. A
// non-positive timeout calls fn with ctx as is.
func Deadline(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(dctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if errors.Is(dctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %v: %w", op, apperrors.ErrTimeout, time.Since(start).Round(time.Millisecond), err)
	}
	return err
}
