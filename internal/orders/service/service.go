// Package service implements the orders commands. Every mutation runs
// through the idempotent execution scope; the service itself never
// touches the database outside it.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/pkg/platform/executor"
	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/interceptor"
	"ordercore/pkg/requestcontext"
)

// Action names recorded on idempotency records.
const (
	ActionCreateOrder   = "orders.create"
	ActionCancelOrder   = "orders.cancel"
	ActionDeleteOrder   = "orders.delete"
	ActionMarkOrderPaid = "orders.mark_paid"
)

type Service struct {
	exec   Executor
	store  Store
	seen   SeenCache
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSeenCache enables the advisory duplicate filter. Without it every
// duplicate goes straight to the idempotency store, which is correct but
// opens a transaction per duplicate.
func WithSeenCache(seen SeenCache) Option {
	return func(s *Service) { s.seen = seen }
}

func New(exec Executor, store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		exec:   exec,
		store:  store,
		logger: logger.With("component", "orders.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrderCommand carries the caller-supplied order attributes. The
// request id arrives through the context, not the command.
type CreateOrderCommand struct {
	CustomerID uuid.UUID
	TotalCents int64
	Currency   string
}

// CreateOrder creates a pending order exactly once per request id.
// A duplicate submission returns faults.ErrIdempotenceConflict whether it
// is caught by the seen cache, the pre-check, or the unique index.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*models.Order, error) {
	requestID := requestcontext.RequestID(ctx)
	if dup, err := s.seenBefore(ctx, requestID); err == nil && dup {
		return nil, faults.ErrIdempotenceConflict
	}

	var order *models.Order
	err := s.exec.Execute(ctx, ActionCreateOrder, executor.Options{EnsureIdempotence: true},
		func(ctx context.Context, cs *interceptor.ChangeSet) error {
			o, err := models.NewOrder(cmd.CustomerID, cmd.TotalCents, cmd.Currency, requestcontext.Now(ctx))
			if err != nil {
				return err
			}
			cs.TrackNew(o, s.store)
			order = o
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.markSeen(ctx, requestID)
	return order, nil
}

// GetOrder loads an order by id, soft-deleted ones included.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// CancelOrder transitions a pending order to canceled.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID, reason string) error {
	return s.exec.Execute(ctx, ActionCancelOrder, executor.Options{EnsureIdempotence: true},
		func(ctx context.Context, cs *interceptor.ChangeSet) error {
			o, err := s.store.FindByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load order %s: %w", id, err)
			}
			if err := o.Cancel(reason, requestcontext.Now(ctx)); err != nil {
				return err
			}
			cs.TrackModified(o, s.store)
			return nil
		})
}

// DeleteOrder removes an order. Orders are soft-deletable, so the
// pipeline turns this into a flagged update and the row survives for
// lookups by id.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.exec.Execute(ctx, ActionDeleteOrder, executor.Options{EnsureIdempotence: true},
		func(ctx context.Context, cs *interceptor.ChangeSet) error {
			o, err := s.store.FindByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load order %s: %w", id, err)
			}
			cs.TrackDeleted(o, s.store)
			return nil
		})
}

// MarkOrderPaid settles an order from a payment event. The caller seeds
// the context request id from the payment id so redelivered events fall
// into the idempotence conflict path instead of double-applying.
func (s *Service) MarkOrderPaid(ctx context.Context, orderID, paymentID uuid.UUID) error {
	return s.exec.Execute(ctx, ActionMarkOrderPaid, executor.Options{EnsureIdempotence: true},
		func(ctx context.Context, cs *interceptor.ChangeSet) error {
			o, err := s.store.FindByID(ctx, orderID)
			if err != nil {
				return fmt.Errorf("load order %s: %w", orderID, err)
			}
			if err := o.MarkPaid(paymentID, requestcontext.Now(ctx)); err != nil {
				return err
			}
			cs.TrackModified(o, s.store)
			return nil
		})
}

// seenBefore consults the advisory cache. Cache failures are logged and
// treated as a miss; the idempotency store remains the authority.
func (s *Service) seenBefore(ctx context.Context, requestID uuid.UUID) (bool, error) {
	if s.seen == nil || requestID == uuid.Nil {
		return false, nil
	}
	dup, err := s.seen.Seen(ctx, requestID)
	if err != nil {
		s.logger.WarnContext(ctx, "seen-cache lookup failed, falling through to store",
			"request_id", requestID, "error", err)
		return false, err
	}
	return dup, nil
}

func (s *Service) markSeen(ctx context.Context, requestID uuid.UUID) {
	if s.seen == nil || requestID == uuid.Nil {
		return
	}
	if err := s.seen.MarkSeen(ctx, requestID); err != nil {
		s.logger.WarnContext(ctx, "seen-cache mark failed",
			"request_id", requestID, "error", err)
	}
}
