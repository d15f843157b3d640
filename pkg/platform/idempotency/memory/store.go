// Package memory provides an in-memory idempotency store for unit tests
// and single-process development. It enforces the same request-id
// uniqueness guarantee the postgres store gets from its unique index.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/idempotency"
)

type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]idempotency.Record
}

func New() *Store {
	return &Store{records: make(map[uuid.UUID]idempotency.Record)}
}

func (s *Store) Exists(_ context.Context, requestID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[requestID]
	return ok, nil
}

func (s *Store) Add(_ context.Context, rec idempotency.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.RequestID]; ok {
		return faults.ErrIdempotenceConflict
	}
	s.records[rec.RequestID] = rec
	return nil
}

// All returns a copy of every accepted record, for test assertions.
func (s *Store) All() []idempotency.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]idempotency.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}
