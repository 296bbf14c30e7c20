package objectstore

import (
	"context"
	"time"

	"github.com/randdane/life-log/internal/domain"
)

// RetryPolicy bounds retries of transient store failures.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetry returns the policy used for store calls on request paths.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// WithRetry runs fn, retrying with exponential backoff while the error is a
// transient StorageError. Validation and permanent failures surface
// immediately. The last error is returned once attempts are exhausted.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	delay := policy.InitialDelay
	var err error

	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !domain.IsTransientStorage(err) || attempt >= policy.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}
