package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fundgate/internal/audit"
	proposalmetrics "fundgate/internal/proposal/metrics"
	"fundgate/internal/proposal/models"
	"fundgate/internal/proposal/store"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/requestcontext"
)

// IdentityGate answers whether an address completed verification.
type IdentityGate interface {
	IsVerified(ctx context.Context, address domain.Address) (bool, error)
}

// AuditPublisher captures proposal lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// CreateRequest carries the caller-supplied fields of a new proposal.
type CreateRequest struct {
	Title          string
	Description    string
	FundingGoal    domain.Amount
	PayoutAddress  domain.Address
	Milestones     []models.MilestoneDraft
	VotingDuration time.Duration
}

// Registry owns the proposal catalog: the sole creation path plus reads.
// Lifecycle transitions happen elsewhere; the registry guarantees that
// every proposal that exists was created by a verified identity with a
// valid disbursement plan.
type Registry struct {
	proposals      store.Store
	gate           IdentityGate
	logger         *slog.Logger
	metrics        *proposalmetrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *proposalmetrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Registry) {
		r.auditPublisher = publisher
	}
}

// New constructs a Registry.
func New(proposals store.Store, gate IdentityGate, opts ...Option) *Registry {
	r := &Registry{proposals: proposals, gate: gate}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates and persists a new proposal, returning its id.
// Preconditions, checked in order: the creator is verified, title and
// description are non-empty, the goal is positive, the voting duration is
// positive, and the milestone plan validates per NewPlan.
func (r *Registry) Create(ctx context.Context, creator domain.Address, req CreateRequest) (domain.ProposalID, error) {
	start := time.Now()

	verified, err := r.gate.IsVerified(ctx, creator)
	if err != nil {
		return 0, err
	}
	if !verified {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "creator identity is not verified")
	}
	if strings.TrimSpace(req.Title) == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "title must not be empty")
	}
	if strings.TrimSpace(req.Description) == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "description must not be empty")
	}
	if !req.FundingGoal.IsPositive() {
		return 0, dErrors.New(dErrors.CodeValidation, "funding goal must be positive")
	}
	if req.VotingDuration <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "voting duration must be positive")
	}

	milestones, err := models.NewPlan(req.Milestones, req.FundingGoal)
	if err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	p := &models.Proposal{
		Creator:        creator,
		PayoutAddress:  req.PayoutAddress,
		Title:          req.Title,
		Description:    req.Description,
		FundingGoal:    req.FundingGoal,
		Status:         models.StatusPending,
		CreationTime:   now,
		VotingDeadline: now.Add(req.VotingDuration),
		Milestones:     milestones,
	}
	id, err := r.proposals.Create(ctx, p)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	r.logAudit(ctx, audit.Event{
		Actor:    creator,
		Action:   audit.EventProposalCreated,
		Proposal: id,
		Amount:   req.FundingGoal,
	})
	if r.metrics != nil {
		r.metrics.ProposalsCreated.Inc()
		r.metrics.ObserveCreate(start)
	}
	return id, nil
}

// Get returns a snapshot of one proposal.
func (r *Registry) Get(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	p, err := r.proposals.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

// List returns all proposals in ascending id order.
func (r *Registry) List(ctx context.Context) ([]*models.Proposal, error) {
	out, err := r.proposals.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}
	return out, nil
}

// Count returns the total number of proposals ever created.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.proposals.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count proposals")
	}
	return n, nil
}

func (r *Registry) logAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if r.logger != nil {
		r.logger.InfoContext(ctx, event.Action,
			"proposal_id", uint64(event.Proposal),
			"actor", event.Actor.String(),
			"request_id", event.RequestID,
			"log_type", "audit",
		)
	}
	if r.auditPublisher != nil {
		_ = r.auditPublisher.Emit(ctx, event)
	}
}
