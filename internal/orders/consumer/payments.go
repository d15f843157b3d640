// Package consumer handles inbound integration events for the orders
// context.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ordersvc "ordercore/internal/orders/service"
	platformconsumer "ordercore/internal/platform/kafka/consumer"
	"ordercore/pkg/platform/consume"
	"ordercore/pkg/platform/faults"
	"ordercore/pkg/requestcontext"
)

// PaymentSettled is the payments-service event this context subscribes
// to.
type PaymentSettled struct {
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	SettledAt time.Time `json:"settled_at"`
}

// Payments consumes payment settlements and marks the matching orders
// paid.
type Payments struct {
	svc    *ordersvc.Service
	logger *slog.Logger
}

func NewPayments(svc *ordersvc.Service, logger *slog.Logger) *Payments {
	return &Payments{
		svc:    svc,
		logger: logger.With("component", "orders.payments-consumer"),
	}
}

// Handle applies one settlement. The payment id doubles as the request
// id, so a redelivered settlement hits the idempotence conflict and is
// acknowledged as already applied. A settlement for an unknown order is
// acknowledged too: redelivery cannot make the order appear.
func (h *Payments) Handle(ctx context.Context, msg *platformconsumer.Message) error {
	var evt PaymentSettled
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger.ErrorContext(ctx, "dropping malformed payment event",
			"topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if evt.PaymentID == uuid.Nil || evt.OrderID == uuid.Nil {
		h.logger.ErrorContext(ctx, "dropping payment event without ids",
			"topic", msg.Topic, "offset", msg.Offset)
		return nil
	}

	ctx = requestcontext.WithRequestID(ctx, evt.PaymentID)
	if correlation := msg.Header(consume.CorrelationHeader); correlation != "" {
		ctx = requestcontext.WithCorrelationID(ctx, correlation)
	}

	err := h.svc.MarkOrderPaid(ctx, evt.OrderID, evt.PaymentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, faults.ErrIdempotenceConflict):
		h.logger.InfoContext(ctx, "payment already applied",
			"payment_id", evt.PaymentID, "order_id", evt.OrderID)
		return nil
	case errors.Is(err, faults.ErrNotFound):
		h.logger.WarnContext(ctx, "payment references unknown order, acknowledging",
			"payment_id", evt.PaymentID, "order_id", evt.OrderID)
		return nil
	default:
		return fmt.Errorf("mark order %s paid: %w", evt.OrderID, err)
	}
}
