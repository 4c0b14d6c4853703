package store

import (
	"context"

	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
)

// Store persists the proposal table. Implementations must serialize
// mutations per proposal: Update runs its callback against a private copy
// under a per-record critical section and persists the result atomically, so
// precondition checks and the state transition form a single unit of work.
// Reads return snapshots that never alias live state.
type Store interface {
	// Create assigns the next monotonically increasing id (starting at 1)
	// and persists the proposal. The sole creation path; ids are never
	// reused or reassigned.
	Create(ctx context.Context, p *models.Proposal) (domain.ProposalID, error)

	// Get returns a snapshot of one proposal, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)

	// List returns snapshots of all proposals in ascending id order.
	List(ctx context.Context) ([]*models.Proposal, error)

	// Count returns the total number of proposals ever created.
	Count(ctx context.Context) (int, error)

	// Update applies fn to the proposal under per-record serialization.
	// A non-nil error from fn aborts the update without persisting and is
	// returned verbatim. On success the updated snapshot is returned.
	Update(ctx context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (*models.Proposal, error)
}
