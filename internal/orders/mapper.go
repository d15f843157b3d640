// Package orders holds the cross-cutting pieces of the orders context:
// the mapping from domain events to integration events and the event type
// names consumers dispatch on.
package orders

import (
	"time"

	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/pkg/platform/events"
)

// Integration event types published to the orders topic.
const (
	EventTypeOrderCreated  = "order.created"
	EventTypeOrderPaid     = "order.paid"
	EventTypeOrderCanceled = "order.canceled"
)

// Wire payloads. Kept separate from the domain events so the published
// schema can evolve independently of the aggregate.

type OrderCreatedPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderPaidPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	PaidAt    time.Time `json:"paid_at"`
}

type OrderCanceledPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	Reason     string    `json:"reason"`
	CanceledAt time.Time `json:"canceled_at"`
}

// NewEventMapper converts the orders domain events into integration
// events. Pure by contract: it only rearranges data already present on
// the events.
func NewEventMapper() events.MapperFunc {
	return func(domainEvents []events.Event) []events.Integration {
		var out []events.Integration
		for _, evt := range domainEvents {
			switch e := evt.(type) {
			case models.OrderCreated:
				out = append(out, integration(EventTypeOrderCreated, e.At, OrderCreatedPayload{
					OrderID:    e.OrderID,
					CustomerID: e.CustomerID,
					TotalCents: e.TotalCents,
					Currency:   e.Currency,
					CreatedAt:  e.At,
				}))
			case models.OrderPaid:
				out = append(out, integration(EventTypeOrderPaid, e.At, OrderPaidPayload{
					OrderID:   e.OrderID,
					PaymentID: e.PaymentID,
					PaidAt:    e.At,
				}))
			case models.OrderCanceled:
				out = append(out, integration(EventTypeOrderCanceled, e.At, OrderCanceledPayload{
					OrderID:    e.OrderID,
					Reason:     e.Reason,
					CanceledAt: e.At,
				}))
			}
		}
		return out
	}
}

func integration(eventType string, occurredAt time.Time, payload any) events.Integration {
	return events.Integration{
		ID:            uuid.New(),
		Type:          eventType,
		OccurredOnUTC: occurredAt.UTC(),
		Payload:       payload,
	}
}
