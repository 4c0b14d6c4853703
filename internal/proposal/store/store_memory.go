package store

import (
	"context"
	"sync"

	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the proposal table in process memory. Snapshots are
// deep copies, so callers can never mutate stored state outside Update.
type InMemoryStore struct {
	mu        sync.RWMutex
	proposals map[domain.ProposalID]*models.Proposal
	nextID    domain.ProposalID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		proposals: make(map[domain.ProposalID]*models.Proposal),
		nextID:    1,
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Proposal) (domain.ProposalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	cp := p.Clone()
	cp.ID = id
	s.proposals[id] = cp
	return id, nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Proposal, 0, len(s.proposals))
	for id := domain.ProposalID(1); id < s.nextID; id++ {
		if p, ok := s.proposals[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals), nil
}

func (s *InMemoryStore) Update(_ context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// fn runs against a copy; a failed precondition leaves the stored
	// record untouched.
	cp := p.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	s.proposals[id] = cp
	return cp.Clone(), nil
}
