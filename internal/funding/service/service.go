// Package service implements the donation ledger: it accepts contributions
// to active proposals, routes their value, and keeps totalRaised in step with
// confirmed transfers.
package service

import (
	"context"
	"errors"
	"log/slog"

	"fundgate/internal/audit"
	"fundgate/internal/funding/transfer"
	propmetrics "fundgate/internal/proposal/metrics"
	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/requestcontext"
)

// ProposalStore is the slice of the proposal store the ledger needs.
type ProposalStore interface {
	Get(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)
	Update(ctx context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (*models.Proposal, error)
}

// AuditPublisher captures donation events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Donation is the outcome of one accepted contribution.
type Donation struct {
	Donor       domain.Address
	Amount      domain.Amount
	Target      domain.Address
	ViaTreasury bool
	TotalRaised domain.Amount
	Reference   string
}

// Ledger records donations against proposals.
//
// Ordering invariant: the value transfer is confirmed before totalRaised is
// incremented, and the increment re-checks preconditions under the store's
// per-proposal lock, so an unconfirmed transfer never inflates the ledger.
type Ledger struct {
	proposals  ProposalStore
	transferer transfer.Transferer
	treasury   domain.Address
	logger     *slog.Logger
	metrics    *propmetrics.Metrics
	audit      AuditPublisher
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(l *slog.Logger) Option {
	return func(s *Ledger) { s.logger = l }
}

func WithMetrics(m *propmetrics.Metrics) Option {
	return func(s *Ledger) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Ledger) { s.audit = p }
}

func New(proposals ProposalStore, transferer transfer.Transferer, treasury domain.Address, opts ...Option) *Ledger {
	s := &Ledger{
		proposals:  proposals,
		transferer: transferer,
		treasury:   treasury,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordDonation accepts a contribution from donor to the proposal. The
// routing target and the totalRaised increment derive from one consistent
// snapshot of the proposal.
func (s *Ledger) RecordDonation(ctx context.Context, id domain.ProposalID, donor domain.Address, amount domain.Amount) (Donation, error) {
	snapshot, err := s.proposals.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		return Donation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	if err := snapshot.CanDonate(amount); err != nil {
		return Donation{}, err
	}

	target := snapshot.RoutingTarget(s.treasury)
	receipt, err := s.transferer.Transfer(ctx, donor, target, amount)
	if err != nil {
		s.logger.ErrorContext(ctx, "donation transfer not confirmed",
			"proposal_id", uint64(id),
			"donor", donor.String(),
			"error", err,
		)
		return Donation{}, dErrors.Wrap(err, dErrors.CodeConflict, "value transfer not confirmed")
	}

	updated, err := s.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanDonate(amount); err != nil {
			return err
		}
		p.ApplyDonation(amount)
		return nil
	})
	if err != nil {
		// The transfer confirmed but the proposal changed underneath us.
		// Surface the conflict; the receipt reference is the operator's
		// handle for reconciliation.
		s.logger.ErrorContext(ctx, "confirmed donation could not be recorded",
			"proposal_id", uint64(id),
			"donor", donor.String(),
			"reference", receipt.Reference,
			"error", err,
		)
		if dErrors.Is(err) {
			return Donation{}, err
		}
		return Donation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
	}

	if s.metrics != nil {
		s.metrics.DonationsRecorded.Inc()
		s.metrics.DonatedTotal.Add(float64(amount.Int64()))
	}
	s.logAudit(ctx, audit.Event{
		Actor:    donor,
		Action:   audit.EventDonationRecorded,
		Proposal: id,
		Amount:   amount,
	})
	s.logger.InfoContext(ctx, "donation recorded",
		"log_type", "audit",
		"proposal_id", uint64(id),
		"donor", donor.String(),
		"amount", amount.Int64(),
		"target", target.String(),
		"total_raised", updated.TotalRaised.Int64(),
	)

	return Donation{
		Donor:       donor,
		Amount:      amount,
		Target:      target,
		ViaTreasury: target == s.treasury && snapshot.PayoutAddress.IsZero(),
		TotalRaised: updated.TotalRaised,
		Reference:   receipt.Reference,
	}, nil
}

func (s *Ledger) logAudit(ctx context.Context, ev audit.Event) {
	if s.audit == nil {
		return
	}
	ev.RequestID = requestcontext.RequestID(ctx)
	_ = s.audit.Emit(ctx, ev)
}
