package remote

import (
	"context"
	"time"
)

// maxBackoff caps the exponential delay between attempts.
const maxBackoff = 10 * time.Second

// RetryPolicy bounds the send retry loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Delay returns the backoff before the given retry, doubling from BaseDelay.
// attempt is 1-based: the delay before attempt 2 is BaseDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// retry runs fn up to MaxAttempts times, sleeping the policy's backoff
// between attempts. The context aborts both the attempt and the sleep.
func (p RetryPolicy) retry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(p.Delay(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		reply, err := fn(ctx)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}
