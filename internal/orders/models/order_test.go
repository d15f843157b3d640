package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), 2500, "EUR", testTime)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates a pending order and records OrderCreated", func(t *testing.T) {
		customerID := uuid.New()
		o, err := NewOrder(customerID, 2500, "EUR", testTime)
		require.NoError(t, err)

		assert.Equal(t, OrderStatusPending, o.Status)
		assert.Equal(t, customerID, o.CustomerID)

		events := o.DrainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(OrderCreated)
		require.True(t, ok)
		assert.Equal(t, o.ID, created.OrderID)
		assert.Equal(t, testTime, created.At)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, 2500, "EUR", testTime)
		assert.Error(t, err)

		_, err = NewOrder(uuid.New(), 0, "EUR", testTime)
		assert.Error(t, err)

		_, err = NewOrder(uuid.New(), 2500, "", testTime)
		assert.Error(t, err)
	})
}

func TestMarkPaid(t *testing.T) {
	t.Run("transitions pending to paid and records OrderPaid", func(t *testing.T) {
		o := newTestOrder(t)
		o.DrainEvents()

		paymentID := uuid.New()
		require.NoError(t, o.MarkPaid(paymentID, testTime.Add(time.Hour)))

		assert.Equal(t, OrderStatusPaid, o.Status)
		events := o.DrainEvents()
		require.Len(t, events, 1)
		paid, ok := events[0].(OrderPaid)
		require.True(t, ok)
		assert.Equal(t, paymentID, paid.PaymentID)
	})

	t.Run("repeat payment on a paid order is a no-op", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.MarkPaid(uuid.New(), testTime))
		o.DrainEvents()

		require.NoError(t, o.MarkPaid(uuid.New(), testTime.Add(time.Minute)))
		assert.Empty(t, o.DrainEvents(), "no second OrderPaid event")
	})

	t.Run("cannot pay a canceled order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Cancel("changed my mind", testTime))

		assert.Error(t, o.MarkPaid(uuid.New(), testTime))
	})
}

func TestCancel(t *testing.T) {
	t.Run("transitions pending to canceled and records OrderCanceled", func(t *testing.T) {
		o := newTestOrder(t)
		o.DrainEvents()

		require.NoError(t, o.Cancel("out of stock", testTime))

		assert.Equal(t, OrderStatusCanceled, o.Status)
		events := o.DrainEvents()
		require.Len(t, events, 1)
		canceled, ok := events[0].(OrderCanceled)
		require.True(t, ok)
		assert.Equal(t, "out of stock", canceled.Reason)
	})

	t.Run("cannot cancel a paid order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.MarkPaid(uuid.New(), testTime))

		assert.Error(t, o.Cancel("too late", testTime))
	})
}

func TestDrainEventsClearsPending(t *testing.T) {
	o := newTestOrder(t)

	assert.Len(t, o.DrainEvents(), 1)
	assert.Empty(t, o.DrainEvents())
}

func TestMarkDeleted(t *testing.T) {
	o := newTestOrder(t)
	deletedAt := testTime.Add(2 * time.Hour)

	o.MarkDeleted(deletedAt)

	assert.True(t, o.IsDeleted)
	require.NotNil(t, o.DeletedAt)
	assert.Equal(t, deletedAt, *o.DeletedAt)
}

func TestConcurrencyTokenSurvivesAuditStamp(t *testing.T) {
	o := newTestOrder(t)
	asRead := testTime.Add(-time.Hour)
	o.SetConcurrencyToken(asRead)

	o.SetAuditUpdatedAt(testTime)

	assert.Equal(t, asRead, o.ConcurrencyToken(), "token keeps the as-read UpdatedAt")
	assert.Equal(t, testTime, o.UpdatedAt)
}
