package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pkordes/status-page/internal/domain"
)

// defaultRetryDelay is used when RetryPolicy.BaseDelay is not set.
const defaultRetryDelay = 50 * time.Millisecond

// RetryPolicy bounds how often a single save step is attempted.
// The zero value attempts each step exactly once.
type RetryPolicy struct {
	// Attempts is the total number of tries per step, including the first.
	Attempts int
	// BaseDelay is the first backoff interval; it doubles on every retry.
	BaseDelay time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(delay))
}

// do runs op under the policy. Errors that retrying cannot fix (bad input,
// missing records, a cancelled context) are returned after the first try.
func (p RetryPolicy) do(ctx context.Context, op func(context.Context) error) error {
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		err := op(ctx)
		if err == nil || permanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrIntegrity) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
