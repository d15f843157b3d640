package consume

import (
	"context"
	"fmt"
	"log/slog"

	"ordercore/internal/platform/kafka/consumer"
)

// Faults captures every failure escaping the inner filters, logs it with
// full message context, and rethrows it unchanged so the broker's
// dead-lettering and alerting still see the original error. Panics in
// handlers are converted to errors so one poisoned message cannot take
// the poll loop down.
func Faults(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *consumer.Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("handler panic: %v", r)
				}
				if err != nil {
					logger.ErrorContext(ctx, "message handling failed",
						"topic", msg.Topic,
						"partition", msg.Partition,
						"offset", msg.Offset,
						"key", string(msg.Key),
						"correlation_id", msg.Header(CorrelationHeader),
						"error", err,
					)
				}
			}()
			return next(ctx, msg)
		}
	}
}
