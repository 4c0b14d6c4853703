package metadata

import (
	"context"
	"sync"

	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

// InMemoryStore holds metadata in process. Used when Redis is not
// configured and in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.ProposalID]Metadata
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.ProposalID]Metadata)}
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ProposalID) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.records[id]
	if !ok {
		return Metadata{}, sentinel.ErrNotFound
	}
	return md, nil
}

func (s *InMemoryStore) Put(_ context.Context, id domain.ProposalID, md Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = md
	return nil
}
