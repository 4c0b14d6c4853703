package service

import (
	"context"
	"errors"
	"log/slog"

	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/requestcontext"
)

// ProposalStore is the slice of the proposal store this subsystem needs.
type ProposalStore interface {
	Get(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)
	Update(ctx context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (*models.Proposal, error)
}

// Tally is the outcome of one accepted vote. QuorumReached signals the
// caller to transition the proposal to Active; the transition itself is not
// performed here, keeping tally and transition decoupled so the threshold
// policy can be swapped without touching vote storage.
type Tally struct {
	TotalVotes    int
	QuorumReached bool
}

// Service records one vote per identity per proposal and decides
// quorum-based activation.
type Service struct {
	proposals ProposalStore
	threshold int
	logger    *slog.Logger
}

func New(proposals ProposalStore, activationThreshold int, logger *slog.Logger) *Service {
	return &Service{proposals: proposals, threshold: activationThreshold, logger: logger}
}

// CastVote inserts the voter into the proposal's vote set. Preconditions,
// checked in order: the proposal exists, voting is open (Pending and before
// the deadline), and the voter has not voted before.
func (s *Service) CastVote(ctx context.Context, id domain.ProposalID, voter domain.Address) (Tally, error) {
	now := requestcontext.Now(ctx)
	updated, err := s.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanAcceptVote(voter, now); err != nil {
			return err
		}
		p.ApplyVote(voter)
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return Tally{}, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return Tally{}, err
		}
		return Tally{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	tally := Tally{
		TotalVotes:    updated.TotalVotes(),
		QuorumReached: updated.TotalVotes() >= s.threshold,
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "vote recorded",
			"proposal_id", uint64(id),
			"total_votes", tally.TotalVotes,
			"quorum_reached", tally.QuorumReached,
		)
	}
	return tally, nil
}

// HasVoted reports whether the address already voted on the proposal.
func (s *Service) HasVoted(ctx context.Context, id domain.ProposalID, voter domain.Address) (bool, error) {
	p, err := s.proposals.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p.HasVoted(voter), nil
}

// Activate performs the Pending -> Active transition. Used by the
// controller both for quorum activation and for the owner fast-path.
func (s *Service) Activate(ctx context.Context, id domain.ProposalID) error {
	_, err := s.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanActivate(); err != nil {
			return err
		}
		p.ApplyActivation()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil && !dErrors.Is(err) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate proposal")
	}
	return err
}

// ForceActivate is the administrative fast-path: transitions a Pending
// proposal directly to Active regardless of vote count. Only the owner role
// may use it.
func (s *Service) ForceActivate(ctx context.Context, id domain.ProposalID, actor domain.Actor) error {
	if !actor.IsOwner() {
		return dErrors.New(dErrors.CodeUnauthorized, "only the platform owner may force activation")
	}
	if err := s.Activate(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "proposal force-activated",
			"proposal_id", uint64(id),
			"actor", actor.Address.String(),
		)
	}
	return nil
}
