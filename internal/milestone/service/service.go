// Package service implements the milestone executor: creators submit
// completed milestones, the platform owner decides them, and approved
// tranches are disbursed to the creator before the ledger advances.
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

// ProposalStore is the slice of the proposal store the executor needs.
// Update's callback runs inside the store's per-proposal critical section.
type ProposalStore interface {
	Update(ctx context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (*models.Proposal, error)
}

// AuditPublisher captures milestone events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Decision is the owner's verdict on a submitted milestone.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Outcome reports what a decision did. Disbursed is nil on rejection.
type Outcome struct {
	Decision  Decision
	Disbursed *domain.Amount
	Completed bool
}

// Executor drives milestone submission and decision.
type Executor struct {
	proposals         ProposalStore
	transferer        transfer.Transferer
	treasury          domain.Address
	allowResubmission bool
	logger            *slog.Logger
	metrics           *propmetrics.Metrics
	audit             AuditPublisher
}

type Option func(*Executor)

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

func WithMetrics(m *propmetrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(e *Executor) { e.audit = p }
}

func New(proposals ProposalStore, transferer transfer.Transferer, treasury domain.Address, allowResubmission bool, opts ...Option) *Executor {
	e := &Executor{
		proposals:         proposals,
		transferer:        transferer,
		treasury:          treasury,
		allowResubmission: allowResubmission,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit marks the proposal's current milestone as ready for review. Only
// the creator may submit, and only on an Active proposal.
func (e *Executor) Submit(ctx context.Context, id domain.ProposalID, actor domain.Actor) error {
	_, err := e.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanSubmitMilestone(actor.Address, e.allowResubmission); err != nil {
			return err
		}
		p.ApplyMilestoneSubmission()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit milestone")
	}

	e.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventMilestoneSubmitted,
		Proposal: id,
	})
	return nil
}

// Decide records the owner's verdict on the submitted milestone. Approval
// disburses the milestone's tranche to the creator first; the ledger only
// advances once the transfer is confirmed. Rejection advances nothing, so
// the creator can resubmit when the resubmission policy allows it.
func (e *Executor) Decide(ctx context.Context, id domain.ProposalID, actor domain.Actor, decision Decision, reason string) (Outcome, error) {
	if !actor.IsOwner() {
		return Outcome{}, dErrors.New(dErrors.CodeUnauthorized, "only the platform owner may decide milestones")
	}

	switch decision {
	case DecisionApprove:
		return e.approve(ctx, id, actor, reason)
	case DecisionReject:
		return e.reject(ctx, id, actor, reason)
	default:
		return Outcome{}, dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
}

func (e *Executor) approve(ctx context.Context, id domain.ProposalID, actor domain.Actor, reason string) (Outcome, error) {
	var (
		disbursed domain.Amount
		completed bool
		receipt   transfer.Receipt
	)
	// The transfer runs inside the store's per-proposal critical section.
	// A concurrent approval of the same milestone waits on the lock, then
	// fails CanDecideMilestone before it can reach the transferer, so a
	// tranche is never disbursed twice.
	_, err := e.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanDecideMilestone(); err != nil {
			return err
		}
		tranche := p.Milestones[p.CurrentMilestone].FundsAllocated
		r, err := e.transferer.Transfer(ctx, e.treasury, p.Creator, tranche)
		if err != nil {
			e.logger.ErrorContext(ctx, "disbursement not confirmed",
				"proposal_id", uint64(id),
				"creator", p.Creator.String(),
				"amount", tranche.Int64(),
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeConflict, "disbursement not confirmed")
		}
		receipt = r
		disbursed, completed = p.ApplyMilestoneApproval()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return Outcome{}, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return Outcome{}, err
		}
		return Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record milestone approval")
	}

	if e.metrics != nil {
		e.metrics.DisbursedTotal.Add(float64(disbursed.Int64()))
		if completed {
			e.metrics.ProposalsCompleted.Inc()
		}
	}
	e.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventMilestoneApproved,
		Proposal: id,
		Amount:   disbursed,
		Decision: string(DecisionApprove),
		Reason:   reason,
	})
	if completed {
		e.logAudit(ctx, audit.Event{
			Actor:    actor.Address,
			Action:   audit.EventProposalCompleted,
			Proposal: id,
		})
	}
	e.logger.InfoContext(ctx, "milestone approved",
		"log_type", "audit",
		"proposal_id", uint64(id),
		"disbursed", disbursed.Int64(),
		"completed", completed,
		"reference", receipt.Reference,
	)

	return Outcome{Decision: DecisionApprove, Disbursed: &disbursed, Completed: completed}, nil
}

func (e *Executor) reject(ctx context.Context, id domain.ProposalID, actor domain.Actor, reason string) (Outcome, error) {
	_, err := e.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanDecideMilestone(); err != nil {
			return err
		}
		p.ApplyMilestoneRejection()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return Outcome{}, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return Outcome{}, err
		}
		return Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record milestone rejection")
	}

	e.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventMilestoneRejected,
		Proposal: id,
		Decision: string(DecisionReject),
		Reason:   reason,
	})
	e.logger.InfoContext(ctx, "milestone rejected",
		"log_type", "audit",
		"proposal_id", uint64(id),
		"reason", reason,
	)
	return Outcome{Decision: DecisionReject}, nil
}

func (e *Executor) logAudit(ctx context.Context, ev audit.Event) {
	if e.audit == nil {
		return
	}
	ev.RequestID = requestcontext.RequestID(ctx)
	_ = e.audit.Emit(ctx, ev)
}
