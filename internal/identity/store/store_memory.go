package store

import (
	"context"
	"sync"

	"fundgate/internal/identity/models"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

// InMemoryStore keeps verifications in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Address]*models.Verification
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Address]*models.Verification)}
}

func (s *InMemoryStore) Put(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[v.Address]; exists {
		return nil
	}
	cp := *v
	s.records[v.Address] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, address domain.Address) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}
