package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Default resilience settings for a single remote embedding call.
const (
	// DefaultAttemptTimeout bounds one attempt, retries included each get
	// their own window.
	DefaultAttemptTimeout = 7 * time.Second
	// DefaultRetryBudget is the number of retries after the first attempt.
	DefaultRetryBudget = 3
	// DefaultBaseDelay is the first backoff delay; it doubles per retry.
	DefaultBaseDelay = 500 * time.Millisecond
)

// ResiliencePolicy composes a per-attempt timeout with a bounded retry
// schedule around a single remote call. The non-retryable check happens
// before the budget is consulted, so one occurrence of the ingestion-required
// signal is never retried even once. The policy wraps only the remote-call
// step: a failure on one chunk never restarts chunking or earlier chunks.
type ResiliencePolicy struct {
	// AttemptTimeout aborts any single attempt that runs past it; the
	// aborted attempt counts as a retryable failure.
	AttemptTimeout time.Duration
	// RetryBudget is the number of retries granted after the first
	// attempt, so an always-failing call is attempted RetryBudget+1 times.
	RetryBudget int
	// BaseDelay is the backoff before the first retry, doubling afterwards.
	BaseDelay time.Duration
	// Logger receives per-attempt debug lines. Defaults to slog.Default().
	Logger *slog.Logger

	attempts atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

// NewResiliencePolicy returns a policy with the default timeout, budget and
// backoff.
func NewResiliencePolicy() *ResiliencePolicy {
	return &ResiliencePolicy{
		AttemptTimeout: DefaultAttemptTimeout,
		RetryBudget:    DefaultRetryBudget,
		BaseDelay:      DefaultBaseDelay,
	}
}

// PolicyStats is a snapshot of a policy's counters.
type PolicyStats struct {
	// Attempts counts every operation invocation, retries included.
	Attempts int64
	// Retries counts attempts beyond the first for any operation.
	Retries int64
	// Failures counts operations whose budget was exhausted or bypassed.
	Failures int64
}

// Stats returns a snapshot of the policy counters.
func (p *ResiliencePolicy) Stats() PolicyStats {
	return PolicyStats{
		Attempts: p.attempts.Load(),
		Retries:  p.retries.Load(),
		Failures: p.failures.Load(),
	}
}

func (p *ResiliencePolicy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Execute runs op through the policy and returns nil on the first success,
// the failure itself when it is non-retryable, or the last failure once the
// budget is exhausted. Caller cancellation is honored between attempts and,
// through the attempt context, during them.
func (p *ResiliencePolicy) Execute(ctx context.Context, op func(context.Context) error) error {
	attempts := p.RetryBudget + 1
	logger := p.logger()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.attempts.Inc()
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		err := op(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				logger.Debug("remote call succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if ctx.Err() != nil {
			// Caller cancellation, not an attempt failure.
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &ProviderError{Err: fmt.Errorf("attempt timed out after %s: %w", p.AttemptTimeout, err)}
		}
		lastErr = err

		if !retryable(err) {
			p.failures.Inc()
			return err
		}
		if attempt == attempts {
			break
		}

		p.retries.Inc()
		logger.Debug("remote call failed, will retry", "attempt", attempt, "maxAttempts", attempts, "error", err)

		delay := p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.failures.Inc()
	return lastErr
}
