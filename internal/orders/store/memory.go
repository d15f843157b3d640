package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/pkg/platform/faults"
)

// Memory is an in-memory orders store for tests. It enforces the same
// concurrency-token check as the postgres store.
type Memory struct {
	mu     sync.Mutex
	orders map[uuid.UUID]models.Order
}

func NewMemory() *Memory {
	return &Memory{orders: make(map[uuid.UUID]models.Order)}
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, faults.ErrNotFound
	}
	o.SetConcurrencyToken(o.UpdatedAt)
	return &o, nil
}

func (s *Memory) Insert(_ context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("insert order %s: already exists", o.ID)
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *Memory) Update(_ context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[o.ID]
	if !ok || !current.UpdatedAt.Equal(o.ConcurrencyToken()) {
		return fmt.Errorf("update order %s: %w", o.ID, faults.ErrConcurrencyConflict)
	}
	s.orders[o.ID] = *o
	o.SetConcurrencyToken(o.UpdatedAt)
	return nil
}

func (s *Memory) Delete(_ context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; !ok {
		return fmt.Errorf("delete order %s: %w", o.ID, faults.ErrNotFound)
	}
	delete(s.orders, o.ID)
	return nil
}
