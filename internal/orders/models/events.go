package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain events recorded by the Order aggregate. They stay in-process;
// the orders mapper decides which of them become integration events.

type OrderCreated struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	TotalCents int64
	Currency   string
	At         time.Time
}

func (OrderCreated) EventName() string       { return "OrderCreated" }
func (e OrderCreated) OccurredAt() time.Time { return e.At }

type OrderPaid struct {
	OrderID   uuid.UUID
	PaymentID uuid.UUID
	At        time.Time
}

func (OrderPaid) EventName() string       { return "OrderPaid" }
func (e OrderPaid) OccurredAt() time.Time { return e.At }

type OrderCanceled struct {
	OrderID uuid.UUID
	Reason  string
	At      time.Time
}

func (OrderCanceled) EventName() string       { return "OrderCanceled" }
func (e OrderCanceled) OccurredAt() time.Time { return e.At }
