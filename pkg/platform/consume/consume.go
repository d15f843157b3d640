// Package consume wraps inbound message handlers with the fixed filter
// chain every consumer in the system runs behind: logging, fault capture,
// and bounded retry.
//
// The chain order is not configurable. Logging is outermost so it observes
// the final outcome, the fault filter sits in the middle so every failure
// is logged with full context exactly once, and retry is innermost,
// closest to the handler:
//
//	handler := consume.Chain(h,
//	    consume.Logging(logger),
//	    consume.Faults(logger),
//	    consume.Retry(consume.DefaultRetryPolicy(), metrics),
//	)
package consume

import (
	"context"

	"ordercore/internal/platform/kafka/consumer"
)

// Handler processes one inbound message.
type Handler func(ctx context.Context, msg *consumer.Message) error

// Middleware wraps a handler with one filter.
type Middleware func(Handler) Handler

// Chain applies middlewares so the first argument is outermost:
// Chain(h, a, b, c) runs a(b(c(h))).
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
