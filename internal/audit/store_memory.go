package audit

import (
	"context"
	"sync"

	"fundgate/pkg/domain"
)

// InMemoryStore accumulates events in memory, keyed by proposal. Events
// that touch no proposal (identity verifications) land under the zero id.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.ProposalID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.ProposalID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Proposal] = append(s.events[event.Proposal], event)
	return nil
}

func (s *InMemoryStore) ListByProposal(_ context.Context, id domain.ProposalID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[id]...), nil
}
