// Package service wires the governance subsystems into one controller. The
// controller is what callers talk to: it decides transition ordering (lazy
// expiry before mutation, quorum activation after a tally) while delegating
// each concern to its subsystem.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fundgate/internal/audit"
	fundingservice "fundgate/internal/funding/service"
	"fundgate/internal/metadata"
	milestoneservice "fundgate/internal/milestone/service"
	propmetrics "fundgate/internal/proposal/metrics"
	"fundgate/internal/proposal/models"
	proposalservice "fundgate/internal/proposal/service"
	"fundgate/internal/proposal/store"
	votingservice "fundgate/internal/voting/service"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/requestcontext"
)

// IdentityGate is the identity subsystem as the controller sees it.
type IdentityGate interface {
	SubmitVerification(ctx context.Context, address domain.Address, proof string) error
	IsVerified(ctx context.Context, address domain.Address) (bool, error)
}

// AuditPublisher captures lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
	List(ctx context.Context, id domain.ProposalID) ([]audit.Event, error)
}

// Policy carries the governance knobs that change engine behavior without
// code changes.
type Policy struct {
	// RejectExpired makes any mutating call reject a Pending proposal whose
	// voting deadline has passed before evaluating the call itself. Reads
	// never mutate.
	RejectExpired bool
}

// Details is a proposal snapshot enriched for presentation.
type Details struct {
	Proposal *models.Proposal
	Metadata *metadata.Metadata
}

// Controller sequences governance operations across the subsystems.
type Controller struct {
	registry  *proposalservice.Registry
	voting    *votingservice.Service
	ledger    *fundingservice.Ledger
	executor  *milestoneservice.Executor
	gate      IdentityGate
	proposals store.Store
	metadata  metadata.Store
	audit     AuditPublisher
	policy    Policy
	logger    *slog.Logger
	metrics   *propmetrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithMetrics(m *propmetrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(c *Controller) { c.audit = p }
}

func WithMetadataStore(s metadata.Store) Option {
	return func(c *Controller) { c.metadata = s }
}

func New(
	registry *proposalservice.Registry,
	voting *votingservice.Service,
	ledger *fundingservice.Ledger,
	executor *milestoneservice.Executor,
	gate IdentityGate,
	proposals store.Store,
	policy Policy,
	opts ...Option,
) *Controller {
	c := &Controller{
		registry:  registry,
		voting:    voting,
		ledger:    ledger,
		executor:  executor,
		gate:      gate,
		proposals: proposals,
		policy:    policy,
		logger:    slog.Default(),
		tracer:    otel.Tracer("fundgate/lifecycle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitVerification records an identity verification.
func (c *Controller) SubmitVerification(ctx context.Context, address domain.Address, proof string) error {
	ctx, span := c.startSpan(ctx, "lifecycle.SubmitVerification", 0)
	defer span.End()
	return c.gate.SubmitVerification(ctx, address, proof)
}

// IsVerified reports the verification status of an address.
func (c *Controller) IsVerified(ctx context.Context, address domain.Address) (bool, error) {
	return c.gate.IsVerified(ctx, address)
}

// CreateProposal creates a new campaign on behalf of the actor.
func (c *Controller) CreateProposal(ctx context.Context, actor domain.Actor, req proposalservice.CreateRequest) (domain.ProposalID, error) {
	ctx, span := c.startSpan(ctx, "lifecycle.CreateProposal", 0)
	defer span.End()
	return c.registry.Create(ctx, actor.Address, req)
}

// GetProposal returns a proposal snapshot enriched with metadata when a
// record exists. Metadata failures never fail the read.
func (c *Controller) GetProposal(ctx context.Context, id domain.ProposalID) (Details, error) {
	p, err := c.registry.Get(ctx, id)
	if err != nil {
		return Details{}, err
	}
	d := Details{Proposal: p}
	if c.metadata != nil {
		md, err := c.metadata.Get(ctx, id)
		switch {
		case err == nil:
			d.Metadata = &md
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			c.logger.WarnContext(ctx, "metadata lookup failed", "proposal_id", uint64(id), "error", err)
		}
	}
	return d, nil
}

// ListProposals returns all proposals in ascending id order.
func (c *Controller) ListProposals(ctx context.Context) ([]*models.Proposal, error) {
	return c.registry.List(ctx)
}

// CountProposals returns the total number of proposals ever created.
func (c *Controller) CountProposals(ctx context.Context) (int, error) {
	return c.registry.Count(ctx)
}

// HasVoted reports whether the address voted on the proposal.
func (c *Controller) HasVoted(ctx context.Context, id domain.ProposalID, voter domain.Address) (bool, error) {
	return c.voting.HasVoted(ctx, id, voter)
}

// AuditTrail returns the recorded events for a proposal, oldest first.
func (c *Controller) AuditTrail(ctx context.Context, id domain.ProposalID) ([]audit.Event, error) {
	if c.audit == nil {
		return nil, nil
	}
	return c.audit.List(ctx, id)
}

// CastVote records the actor's vote and, when the tally reaches quorum,
// activates the proposal. Activation here and a concurrent activation
// elsewhere are allowed to race; the second transition observing Active is
// dropped silently.
func (c *Controller) CastVote(ctx context.Context, id domain.ProposalID, actor domain.Actor) (votingservice.Tally, error) {
	ctx, span := c.startSpan(ctx, "lifecycle.CastVote", id)
	defer span.End()

	if err := c.maybeExpire(ctx, id); err != nil {
		return votingservice.Tally{}, err
	}
	tally, err := c.voting.CastVote(ctx, id, actor.Address)
	if err != nil {
		return votingservice.Tally{}, err
	}
	if c.metrics != nil {
		c.metrics.VotesCast.Inc()
	}
	c.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventVoteCast,
		Proposal: id,
	})

	if tally.QuorumReached {
		if err := c.activate(ctx, id, actor.Address); err != nil {
			return votingservice.Tally{}, err
		}
	}
	return tally, nil
}

// ForceActivate is the owner fast-path to Active, bypassing the quorum.
func (c *Controller) ForceActivate(ctx context.Context, id domain.ProposalID, actor domain.Actor) error {
	ctx, span := c.startSpan(ctx, "lifecycle.ForceActivate", id)
	defer span.End()

	if err := c.maybeExpire(ctx, id); err != nil {
		return err
	}
	if err := c.voting.ForceActivate(ctx, id, actor); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ProposalsActivated.Inc()
	}
	c.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventProposalActivated,
		Proposal: id,
		Reason:   "owner_override",
	})
	return nil
}

// RejectProposal moves a Pending proposal to the terminal Rejected state.
// Owner only.
func (c *Controller) RejectProposal(ctx context.Context, id domain.ProposalID, actor domain.Actor, reason string) error {
	ctx, span := c.startSpan(ctx, "lifecycle.RejectProposal", id)
	defer span.End()

	if !actor.IsOwner() {
		return dErrors.New(dErrors.CodeUnauthorized, "only the platform owner may reject proposals")
	}
	if err := c.reject(ctx, id); err != nil {
		return err
	}
	c.logAudit(ctx, audit.Event{
		Actor:    actor.Address,
		Action:   audit.EventProposalRejected,
		Proposal: id,
		Reason:   reason,
	})
	return nil
}

// Donate records a contribution to an active proposal.
func (c *Controller) Donate(ctx context.Context, id domain.ProposalID, actor domain.Actor, amount domain.Amount) (fundingservice.Donation, error) {
	ctx, span := c.startSpan(ctx, "lifecycle.Donate", id)
	defer span.End()

	if err := c.maybeExpire(ctx, id); err != nil {
		return fundingservice.Donation{}, err
	}
	return c.ledger.RecordDonation(ctx, id, actor.Address, amount)
}

// SubmitMilestone marks the current milestone ready for review.
func (c *Controller) SubmitMilestone(ctx context.Context, id domain.ProposalID, actor domain.Actor) error {
	ctx, span := c.startSpan(ctx, "lifecycle.SubmitMilestone", id)
	defer span.End()

	if err := c.maybeExpire(ctx, id); err != nil {
		return err
	}
	return c.executor.Submit(ctx, id, actor)
}

// DecideMilestone applies the owner's verdict on the submitted milestone.
func (c *Controller) DecideMilestone(ctx context.Context, id domain.ProposalID, actor domain.Actor, decision milestoneservice.Decision, reason string) (milestoneservice.Outcome, error) {
	ctx, span := c.startSpan(ctx, "lifecycle.DecideMilestone", id)
	defer span.End()

	if err := c.maybeExpire(ctx, id); err != nil {
		return milestoneservice.Outcome{}, err
	}
	return c.executor.Decide(ctx, id, actor, decision, reason)
}

// activate performs the quorum-driven Pending -> Active transition. A
// concurrent activation surfacing as InvalidState is not an error here.
func (c *Controller) activate(ctx context.Context, id domain.ProposalID, trigger domain.Address) error {
	err := c.voting.Activate(ctx, id)
	if dErrors.HasCode(err, dErrors.CodeInvalidState) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ProposalsActivated.Inc()
	}
	c.logAudit(ctx, audit.Event{
		Actor:    trigger,
		Action:   audit.EventProposalActivated,
		Proposal: id,
		Reason:   "quorum_reached",
	})
	return nil
}

// maybeExpire lazily rejects a Pending proposal past its voting deadline.
// Called on mutating operations only; no-op unless the policy enables it.
func (c *Controller) maybeExpire(ctx context.Context, id domain.ProposalID) error {
	if !c.policy.RejectExpired {
		return nil
	}
	now := requestcontext.Now(ctx)
	expired := false
	_, err := c.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if !p.Expired(now) {
			return nil
		}
		if err := p.CanReject(); err != nil {
			return err
		}
		p.ApplyRejection()
		expired = true
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire proposal")
	}
	if expired {
		if c.metrics != nil {
			c.metrics.ProposalsRejected.Inc()
		}
		c.logAudit(ctx, audit.Event{
			Action:   audit.EventProposalExpired,
			Proposal: id,
			Reason:   "voting_deadline_passed",
		})
		c.logger.InfoContext(ctx, "proposal expired",
			"log_type", "audit",
			"proposal_id", uint64(id),
		)
	}
	return nil
}

func (c *Controller) reject(ctx context.Context, id domain.ProposalID) error {
	_, err := c.proposals.Update(ctx, id, func(p *models.Proposal) error {
		if err := p.CanReject(); err != nil {
			return err
		}
		p.ApplyRejection()
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		if dErrors.Is(err) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject proposal")
	}
	if c.metrics != nil {
		c.metrics.ProposalsRejected.Inc()
	}
	return nil
}

func (c *Controller) logAudit(ctx context.Context, ev audit.Event) {
	if c.audit == nil {
		return
	}
	ev.RequestID = requestcontext.RequestID(ctx)
	_ = c.audit.Emit(ctx, ev)
}

func (c *Controller) startSpan(ctx context.Context, name string, id domain.ProposalID) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, name)
	if !id.IsZero() {
		span.SetAttributes(attribute.Int64("proposal.id", int64(id)))
	}
	return ctx, span
}
