package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fundgate/internal/audit"
	"fundgate/internal/identity/models"
	"fundgate/internal/identity/store"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/requestcontext"
)

// AuditPublisher captures identity verification events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Gate tracks which participant identities have completed verification and
// gates proposal creation. Verification is one-way: once an address is
// verified it stays verified, and re-submission is an accepted no-op.
type Gate struct {
	store          store.Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(g *Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(g *Gate) {
		g.auditPublisher = publisher
	}
}

// New constructs a Gate.
func New(s store.Store, opts ...Option) *Gate {
	g := &Gate{store: s}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SubmitVerification records a verification proof for an address. The only
// failure mode is an empty proof; everything else, including re-submission
// of an already verified address, succeeds.
func (g *Gate) SubmitVerification(ctx context.Context, address domain.Address, proof string) error {
	if strings.TrimSpace(proof) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification proof must not be empty")
	}
	alreadyVerified, err := g.IsVerified(ctx, address)
	if err != nil {
		return err
	}
	if alreadyVerified {
		return nil
	}
	v := &models.Verification{
		Address:    address,
		Proof:      proof,
		VerifiedAt: requestcontext.Now(ctx),
	}
	if err := g.store.Put(ctx, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}
	g.logAudit(ctx, audit.EventIdentityVerified, address)
	return nil
}

// IsVerified reports whether the address has completed verification.
func (g *Gate) IsVerified(ctx context.Context, address domain.Address) (bool, error) {
	_, err := g.store.Get(ctx, address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up verification")
	}
	return true, nil
}

func (g *Gate) logAudit(ctx context.Context, action string, address domain.Address) {
	if g.logger != nil {
		g.logger.InfoContext(ctx, action,
			"address", address.String(),
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if g.auditPublisher == nil {
		return
	}
	_ = g.auditPublisher.Emit(ctx, audit.Event{
		Actor:     address,
		Action:    action,
		RequestID: requestcontext.RequestID(ctx),
	})
}
