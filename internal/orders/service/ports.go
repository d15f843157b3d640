package service

import (
	"context"

	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/pkg/platform/executor"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Executor is the idempotent execution scope the service runs its
// commands under.
type Executor interface {
	Execute(ctx context.Context, actionName string, opts executor.Options, action executor.Action) error
}

// Store is what the service needs from order persistence. The three
// persister methods are called through the change set, never directly.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Insert(ctx context.Context, entity any) error
	Update(ctx context.Context, entity any) error
	Delete(ctx context.Context, entity any) error
}

// SeenCache is the advisory duplicate filter in front of the
// idempotency store.
type SeenCache interface {
	Seen(ctx context.Context, requestID uuid.UUID) (bool, error)
	MarkSeen(ctx context.Context, requestID uuid.UUID) error
}
