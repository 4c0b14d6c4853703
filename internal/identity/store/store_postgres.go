package store

import (
	"context"
	"database/sql"
	"fmt"

	"fundgate/internal/identity/models"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

// PostgresStore persists verifications in PostgreSQL. ON CONFLICT DO
// NOTHING makes re-submission idempotent at the storage layer: the first
// proof wins and verified state never reverts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS identity_verifications (
	address     TEXT        PRIMARY KEY,
	proof       TEXT        NOT NULL,
	verified_at TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) Put(ctx context.Context, v *models.Verification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity_verifications (address, proof, verified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING`,
		v.Address.String(), v.Proof, v.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, address domain.Address) (*models.Verification, error) {
	var v models.Verification
	var addr string
	err := s.db.QueryRowContext(ctx, `
		SELECT address, proof, verified_at FROM identity_verifications WHERE address = $1`,
		address.String(),
	).Scan(&addr, &v.Proof, &v.VerifiedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	v.Address = domain.Address(addr)
	return &v, nil
}
