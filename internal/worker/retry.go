package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
)

const (
	// DefaultAttempts is the total invocation budget for a contended
	// operation: the first try plus two retries.
	DefaultAttempts = 3

	// defaultBackoff is the base backoff unit; the wait before retry n is
	// n * defaultBackoff (linear, not exponential - contention on a local
	// file clears quickly or not at all).
	defaultBackoff = 100 * time.Millisecond
)

// Executor wraps storage operations with bounded, backoff-based retry for
// transient lock contention.
//
// Only busy/locked signals from the engine are retried. Any other error
// class - in particular constraint violations from the code under test -
// is returned immediately, so a genuine defect is never masked by retries.
type Executor struct {
	attempts uint
	backoff  time.Duration
	logger   *slog.Logger
}

// NewExecutor creates an executor with the default retry budget.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		attempts: DefaultAttempts,
		backoff:  defaultBackoff,
		logger:   logger,
	}
}

// NewExecutorWithBudget creates an executor with an explicit attempt count
// and backoff unit. Used by tests to keep retry delays short.
func NewExecutorWithBudget(attempts uint, backoff time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
	}
}

// WithRetry invokes op, retrying on transient lock contention with linearly
// increasing backoff until the attempt budget is exhausted, then returns
// the last error. Non-transient errors are returned from the first attempt.
func (e *Executor) WithRetry(ctx context.Context, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.RetryIf(IsTransientLock),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			// n is zero-based: first retry waits 1x, second 2x, ...
			return time.Duration(n+1) * e.backoff
		}),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Warn("storage busy, retrying",
				"attempt", n+1,
				"of", e.attempts,
				"error", err,
			)
		}),
	)
}
