// Package async has the two concurrency shapes the pipeline needs: racing a
// call against a deadline and running work detached from a request.
package async

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrTimeout is returned by Race when the deadline wins.
var ErrTimeout = eris.New("operation timed out")

type result[T any] struct {
	v   T
	err error
}

// Race runs op and returns its result, or ErrTimeout if d elapses first.
// op receives a context that is cancelled at the deadline, but Race does not
// wait for it to return; a late result is dropped.
func Race[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, d)
	done := make(chan result[T], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := op(ctx)
		done <- result[T]{v: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-done:
		cancel()
		return r.v, r.err
	case <-timer.C:
		cancel()
		return zero, eris.Wrapf(ErrTimeout, "after %s", d)
	case <-ctx.Done():
		// the parent was cancelled before our own deadline
		cancel()
		if ctx.Err() == context.DeadlineExceeded {
			return zero, eris.Wrapf(ErrTimeout, "after %s", d)
		}
		return zero, eris.Wrap(ctx.Err(), "race aborted")
	}
}

// Tracker counts detached tasks so shutdown can wait for them.
type Tracker interface {
	Add(int)
	Done()
}

// Detach runs fn in its own goroutine on a context that survives the
// caller's cancellation, bounded by timeout. Errors and panics are logged
// and never reach the caller; Detach returns nothing that can be awaited.
func Detach(ctx context.Context, logger *zap.Logger, name string, timeout time.Duration, tracker Tracker, fn func(ctx context.Context) error) {
	if tracker != nil {
		tracker.Add(1)
	}
	base := context.WithoutCancel(ctx)

	go func() {
		if tracker != nil {
			defer tracker.Done()
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Error("detached task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()

		tctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()

		if err := fn(tctx); err != nil {
			logger.Warn("detached task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}
