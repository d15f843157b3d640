// Package memory provides an in-memory outbox store for unit tests and
// single-process development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/outbox"
)

type Store struct {
	mu   sync.RWMutex
	msgs map[uuid.UUID]outbox.Message
}

func New() *Store {
	return &Store{msgs: make(map[uuid.UUID]outbox.Message)}
}

func (s *Store) Insert(_ context.Context, msgs ...outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.msgs[m.ID] = m
	}
	return nil
}

func (s *Store) FetchPending(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]outbox.Message, 0, len(s.msgs))
	for _, m := range s.msgs {
		if m.Pending() {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkProcessed(_ context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range ids {
		m, ok := s.msgs[id]
		if !ok {
			return faults.ErrNotFound
		}
		m.ProcessedOnUTC = &now
		m.UpdatedAt = &now
		s.msgs[id] = m
	}
	return nil
}

func (s *Store) MarkFailed(_ context.Context, id uuid.UUID, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return faults.ErrNotFound
	}
	if len(cause) > outbox.MaxErrorLen {
		cause = cause[:outbox.MaxErrorLen]
	}
	now := time.Now().UTC()
	m.Attempts++
	m.Error = &cause
	m.UpdatedAt = &now
	s.msgs[id] = m
	return nil
}

// All returns a copy of every message, for test assertions.
func (s *Store) All() []outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]outbox.Message, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
