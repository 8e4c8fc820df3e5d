package narrative

import (
	"context"
	"time"
)

// RetryPolicy bounds how often and how patiently a call is repeated.
type RetryPolicy struct {
	Attempts   int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   2,
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 4 * time.Second,
	}
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// the attempts run out. The delay doubles after every failure.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func() error) error {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := policy.MinBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	maxBackoff := policy.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 2 * time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if i == attempts-1 || !retryable(lastErr) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}
