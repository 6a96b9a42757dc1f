package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

// Default backoff bounds between retry attempts.
const (
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
)

// retryPolicy wraps a single driver fetch: it bounds each attempt with the
// driver's configured timeout, classifies failures as retryable or
// terminal, and applies capped exponential backoff with jitter between
// attempts. Sources are independent external services with uncorrelated
// failure modes; per-source backoff keeps one flaky source from eating the
// whole run's time while still letting transient errors self-heal.
type retryPolicy struct {
	backoffBase time.Duration
	backoffMax  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{backoffBase: defaultBackoffBase, backoffMax: defaultBackoffMax}
}

// attemptFunc is one fetch attempt, run under a per-attempt deadline.
type attemptFunc func(ctx context.Context) (map[string]any, error)

// run executes fn up to cfg.MaxAttempts times. It returns the fetched data,
// the number of attempts used, and the last failure. The returned error is
// always classifiable via domain.Classify; caller cancellation comes back
// with kind cancelled.
func (p retryPolicy) run(
	ctx context.Context,
	name string,
	cfg domain.DriverConfig,
	tracker *progressTracker,
	fn attemptFunc,
) (map[string]any, int, error) {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			tracker.resetAttempt()
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		data, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return data, attempt, nil
		}

		// The caller aborting trumps whatever the attempt reported.
		if ctx.Err() != nil {
			return nil, attempt, domain.Cancelled(ctx.Err())
		}

		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.Transientf("timed out after %s", cfg.Timeout)
		}
		lastErr = err

		if domain.Classify(err) != domain.KindTransient || attempt >= cfg.MaxAttempts {
			return nil, attempt, lastErr
		}

		delay := p.delay(attempt)
		logger.Debug("%s: attempt %d/%d failed (%v), retrying in %s",
			name, attempt, cfg.MaxAttempts, err, delay)

		select {
		case <-ctx.Done():
			return nil, attempt, domain.Cancelled(ctx.Err())
		case <-time.After(delay):
		}
	}
}

// delay returns the backoff before the attempt following the given one:
// base * 2^(attempt-1), capped, with jitter in [d/2, d) so concurrently
// failing drivers do not retry in lockstep.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.backoffBase
	for i := 1; i < attempt && d < p.backoffMax; i++ {
		d *= 2
	}
	if d > p.backoffMax {
		d = p.backoffMax
	}
	if half := d / 2; half > 0 {
		d = half + rand.N(half)
	}
	return d
}
