// Package metadata serves presentation-only campaign metadata (imagery,
// tags). It lives outside the governance core: metadata is never required
// for a state transition, and a missing record is not an error for callers
// rendering proposal details.
package metadata

import (
	"context"

	"fundgate/pkg/domain"
)

// Metadata is the off-engine presentation record for a proposal.
type Metadata struct {
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Store reads and writes proposal metadata. Get returns
// sentinel.ErrNotFound when no record exists.
type Store interface {
	Get(ctx context.Context, id domain.ProposalID) (Metadata, error)
	Put(ctx context.Context, id domain.ProposalID, md Metadata) error
}
