package store

import (
	"context"

	"fundgate/internal/identity/models"
	"fundgate/pkg/domain"
)

// Store persists the identity table: one record per verified address.
type Store interface {
	// Put records a verification. Writing an address that is already
	// verified must keep the earliest record (first proof wins).
	Put(ctx context.Context, v *models.Verification) error

	// Get returns the verification for an address, or sentinel.ErrNotFound.
	Get(ctx context.Context, address domain.Address) (*models.Verification, error)
}
