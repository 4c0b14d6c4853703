// Package handler exposes the governance engine over HTTP. Each endpoint is
// a thin translation layer: decode, resolve the actor, delegate to the
// lifecycle controller, encode.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fundgate/internal/lifecycle/service"
	"fundgate/internal/metadata"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	"fundgate/pkg/platform/httputil"
	"fundgate/pkg/requestcontext"
)

// Handler wires governance endpoints to the lifecycle controller.
type Handler struct {
	controller            *service.Controller
	metadata              metadata.Store
	logger                *slog.Logger
	defaultVotingDuration time.Duration
}

// New constructs the handler with its dependencies. metadataStore may be nil
// when metadata writes are not served.
func New(controller *service.Controller, metadataStore metadata.Store, logger *slog.Logger, defaultVotingDuration time.Duration) *Handler {
	return &Handler{
		controller:            controller,
		metadata:              metadataStore,
		logger:                logger,
		defaultVotingDuration: defaultVotingDuration,
	}
}

// Register mounts governance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/verifications", h.HandleSubmitVerification)
	r.Get("/identity/verifications/{address}", h.HandleVerificationStatus)

	r.Post("/proposals", h.HandleCreateProposal)
	r.Get("/proposals", h.HandleListProposals)
	r.Get("/proposals/count", h.HandleCountProposals)
	r.Get("/proposals/{id}", h.HandleGetProposal)
	r.Get("/proposals/{id}/audit", h.HandleAuditTrail)

	r.Post("/proposals/{id}/votes", h.HandleCastVote)
	r.Get("/proposals/{id}/votes/{address}", h.HandleHasVoted)
	r.Post("/proposals/{id}/activation", h.HandleForceActivate)
	r.Post("/proposals/{id}/rejection", h.HandleRejectProposal)

	r.Post("/proposals/{id}/donations", h.HandleDonate)
	r.Post("/proposals/{id}/milestones/submission", h.HandleSubmitMilestone)
	r.Post("/proposals/{id}/milestones/decision", h.HandleDecideMilestone)

	r.Put("/proposals/{id}/metadata", h.HandlePutMetadata)
}

// requireActor resolves the authenticated caller, writing the error response
// when no identity is attached to the request.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor := requestcontext.Actor(r.Context())
	if actor.Address.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Actor{}, false
	}
	return actor, true
}

func proposalID(w http.ResponseWriter, r *http.Request) (domain.ProposalID, bool) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid proposal id"))
		return 0, false
	}
	return id, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid address"))
		return "", false
	}
	return addr, true
}

// HandleSubmitVerification handles POST /identity/verifications.
func (h *Handler) HandleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*VerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.controller.SubmitVerification(ctx, actor.Address, req.Proof); err != nil {
		h.logger.ErrorContext(ctx, "verification submission failed",
			"request_id", requestID,
			"address", actor.Address.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, VerificationStatusResponse{
		Address:  actor.Address.String(),
		Verified: true,
	})
}

// HandleVerificationStatus handles GET /identity/verifications/{address}.
func (h *Handler) HandleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	verified, err := h.controller.IsVerified(ctx, address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerificationStatusResponse{
		Address:  address.String(),
		Verified: verified,
	})
}

// HandleCreateProposal handles POST /proposals.
func (h *Handler) HandleCreateProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CreateProposalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := h.controller.CreateProposal(ctx, actor, req.ToServiceRequest(h.defaultVotingDuration))
	if err != nil {
		h.logger.ErrorContext(ctx, "proposal creation failed",
			"request_id", requestID,
			"creator", actor.Address.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateProposalResponse{ID: uint64(id)})
}

// HandleListProposals handles GET /proposals.
func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposals, err := h.controller.ListProposals(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{Proposals: make([]*ProposalResponse, 0, len(proposals)), Total: len(proposals)}
	for _, p := range proposals {
		resp.Proposals = append(resp.Proposals, FromProposal(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCountProposals handles GET /proposals/count.
func (h *Handler) HandleCountProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.controller.CountProposals(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Total: n})
}

// HandleGetProposal handles GET /proposals/{id}.
func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	details, err := h.controller.GetProposal(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDetails(details))
}

// HandleAuditTrail handles GET /proposals/{id}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	// Existence check so unknown ids surface as 404 rather than an empty
	// trail.
	if _, err := h.controller.GetProposal(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.controller.AuditTrail(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditTrail(events))
}

// HandleCastVote handles POST /proposals/{id}/votes.
func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}

	tally, err := h.controller.CastVote(ctx, id, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "vote cast failed",
			"request_id", requestID,
			"proposal_id", uint64(id),
			"voter", actor.Address.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTally(tally))
}

// HandleHasVoted handles GET /proposals/{id}/votes/{address}.
func (h *Handler) HandleHasVoted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	voted, err := h.controller.HasVoted(ctx, id, address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HasVotedResponse{Address: address.String(), Voted: voted})
}

// HandleForceActivate handles POST /proposals/{id}/activation.
func (h *Handler) HandleForceActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	if err := h.controller.ForceActivate(ctx, id, actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRejectProposal handles POST /proposals/{id}/rejection.
func (h *Handler) HandleRejectProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*RejectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.controller.RejectProposal(ctx, id, actor, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDonate handles POST /proposals/{id}/donations.
func (h *Handler) HandleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*DonationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	donation, err := h.controller.Donate(ctx, id, actor, req.ParsedAmount())
	if err != nil {
		h.logger.ErrorContext(ctx, "donation failed",
			"request_id", requestID,
			"proposal_id", uint64(id),
			"donor", actor.Address.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDonation(donation))
}

// HandleSubmitMilestone handles POST /proposals/{id}/milestones/submission.
func (h *Handler) HandleSubmitMilestone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	if err := h.controller.SubmitMilestone(ctx, id, actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDecideMilestone handles POST /proposals/{id}/milestones/decision.
func (h *Handler) HandleDecideMilestone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*MilestoneDecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.controller.DecideMilestone(ctx, id, actor, req.ParsedDecision(), req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "milestone decision failed",
			"request_id", requestID,
			"proposal_id", uint64(id),
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandlePutMetadata handles PUT /proposals/{id}/metadata. Owner only:
// metadata is curated platform content, not creator input.
func (h *Handler) HandlePutMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsOwner() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "only the platform owner may set metadata"))
		return
	}
	if h.metadata == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "metadata store is not configured"))
		return
	}
	id, ok := proposalID(w, r)
	if !ok {
		return
	}
	if _, err := h.controller.GetProposal(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*MetadataRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	md := metadata.Metadata{ImageURL: req.ImageURL, Tags: req.Tags}
	if err := h.metadata.Put(ctx, id, md); err != nil {
		h.logger.ErrorContext(ctx, "metadata write failed",
			"request_id", requestID,
			"proposal_id", uint64(id),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store metadata"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
