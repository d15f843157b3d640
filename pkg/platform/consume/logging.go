package consume

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ordercore/internal/platform/kafka/consumer"
)

// CorrelationHeader is the message header carrying the correlation token
// the logging filter stitches consumption back to its producer with.
const CorrelationHeader = "correlation-id"

// Logging logs entry and exit of every delivery with the correlation
// token, and opens a span covering the whole filter chain below it.
func Logging(logger *slog.Logger) Middleware {
	tracer := otel.Tracer("ordercore/consume")
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *consumer.Message) error {
			correlation := msg.Header(CorrelationHeader)
			log := logger.With(
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"correlation_id", correlation,
			)

			ctx, span := tracer.Start(ctx, "consume "+msg.Topic,
				trace.WithAttributes(
					attribute.String("messaging.destination", msg.Topic),
					attribute.String("correlation_id", correlation),
				))
			defer span.End()

			log.InfoContext(ctx, "consuming message")
			start := time.Now()

			err := next(ctx, msg)

			if err != nil {
				log.InfoContext(ctx, "consume finished",
					"outcome", "error",
					"duration", time.Since(start),
				)
				return err
			}
			log.InfoContext(ctx, "consume finished",
				"outcome", "ok",
				"duration", time.Since(start),
			)
			return nil
		}
	}
}
