package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ordercore/pkg/platform/events"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

// Order is the aggregate root of the orders context. It carries audit
// columns, soft-delete columns, and a timestamp-based concurrency token,
// and records domain events for the interceptor pipeline to drain.
type Order struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	TotalCents int64
	Currency   string
	Status     OrderStatus

	IsDeleted bool
	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// token is the previously-read UpdatedAt, supplied to the store as the
	// expected original on update. The audit stamp overwrites UpdatedAt
	// before the flush, so the original has to survive separately.
	token time.Time

	pending []events.Event
}

// NewOrder creates a pending order and records OrderCreated.
func NewOrder(customerID uuid.UUID, totalCents int64, currency string, at time.Time) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("order requires a customer id")
	}
	if totalCents <= 0 {
		return nil, fmt.Errorf("order total must be positive, got %d", totalCents)
	}
	if currency == "" {
		return nil, fmt.Errorf("order requires a currency")
	}

	o := &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		TotalCents: totalCents,
		Currency:   currency,
		Status:     OrderStatusPending,
	}
	o.record(OrderCreated{
		OrderID:    o.ID,
		CustomerID: customerID,
		TotalCents: totalCents,
		Currency:   currency,
		At:         at.UTC(),
	})
	return o, nil
}

// MarkPaid transitions a pending order to paid and records OrderPaid.
func (o *Order) MarkPaid(paymentID uuid.UUID, at time.Time) error {
	if o.Status == OrderStatusPaid {
		// Paid is terminal and payment settlement is at-least-once; a
		// repeat is a no-op rather than an error.
		return nil
	}
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot pay a %s order", o.Status)
	}
	o.Status = OrderStatusPaid
	o.record(OrderPaid{
		OrderID:   o.ID,
		PaymentID: paymentID,
		At:        at.UTC(),
	})
	return nil
}

// Cancel transitions a pending order to canceled and records OrderCanceled.
func (o *Order) Cancel(reason string, at time.Time) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot cancel a %s order", o.Status)
	}
	o.Status = OrderStatusCanceled
	o.record(OrderCanceled{
		OrderID: o.ID,
		Reason:  reason,
		At:      at.UTC(),
	})
	return nil
}

func (o *Order) record(evt events.Event) {
	o.pending = append(o.pending, evt)
}

// DrainEvents returns the pending domain events in recording order and
// clears the list.
func (o *Order) DrainEvents() []events.Event {
	drained := o.pending
	o.pending = nil
	return drained
}

// Audit capability.

func (o *Order) AuditCreatedAt() time.Time     { return o.CreatedAt }
func (o *Order) SetAuditCreatedAt(t time.Time) { o.CreatedAt = t }
func (o *Order) SetAuditUpdatedAt(t time.Time) { o.UpdatedAt = t }

// Soft-delete capability.

func (o *Order) MarkDeleted(at time.Time) {
	o.IsDeleted = true
	at = at.UTC()
	o.DeletedAt = &at
}

// Concurrency token, timestamp-based.

// ConcurrencyToken returns the UpdatedAt value read from storage.
func (o *Order) ConcurrencyToken() time.Time { return o.token }

// SetConcurrencyToken records the as-read UpdatedAt; stores call it when
// scanning a row.
func (o *Order) SetConcurrencyToken(t time.Time) { o.token = t }
