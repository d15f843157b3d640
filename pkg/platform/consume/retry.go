package consume

import (
	"context"
	"time"

	"ordercore/internal/platform/kafka/consumer"
	"ordercore/pkg/platform/faults"
)

// RetryPolicy is the fixed, narrow policy of the innermost filter: a small
// bounded number of attempts with a constant delay, adequate only for
// short-lived transient faults. No backoff, no jitter; anything that needs
// more belongs to the broker's dead-lettering.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy returns the standard 3 attempts with 200ms between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 200 * time.Millisecond}
}

// Retry re-invokes the handler on transient failures (timeouts and
// cooperative cancellation) up to the policy bound, then rethrows the last
// transient error. Non-transient errors propagate immediately without
// consuming an attempt.
//
// Cancellation counting as transient is deliberate: a cancel mid-retry
// still burns through the remaining attempts (each failing fast) instead
// of cutting the bound short. The wait select below honors ctx, so a
// cancelled consumer never sits out the full delay.
func Retry(policy RetryPolicy, metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *consumer.Message) error {
			var lastErr error
			for attempt := 1; attempt <= policy.Attempts; attempt++ {
				err := next(ctx, msg)
				if err == nil {
					return nil
				}
				if !faults.IsTransient(err) {
					if metrics != nil {
						metrics.PermanentFaults.WithLabelValues(msg.Topic).Inc()
					}
					return err
				}
				lastErr = err
				if metrics != nil {
					metrics.TransientFaults.WithLabelValues(msg.Topic).Inc()
				}
				if attempt == policy.Attempts {
					break
				}
				if metrics != nil {
					metrics.Retries.WithLabelValues(msg.Topic).Inc()
				}
				select {
				case <-time.After(policy.Delay):
				case <-ctx.Done():
				}
			}
			return lastErr
		}
	}
}
