package handler

import (
	"strings"
	"time"

	milestoneservice "fundgate/internal/milestone/service"
	"fundgate/internal/proposal/models"
	proposalservice "fundgate/internal/proposal/service"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
	platformstrings "fundgate/pkg/platform/strings"
)

// VerificationRequest is the HTTP request body for POST /identity/verifications.
type VerificationRequest struct {
	Proof string `json:"proof"`
}

func (r *VerificationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Proof) == "" {
		return dErrors.New(dErrors.CodeValidation, "proof is required")
	}
	return nil
}

// MilestoneDraftRequest is one milestone entry in a create request.
type MilestoneDraftRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Percentage  int    `json:"percentage"`
}

// CreateProposalRequest is the HTTP request body for POST /proposals.
type CreateProposalRequest struct {
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	FundingGoal        int64                   `json:"funding_goal"`
	PayoutAddress      string                  `json:"payout_address,omitempty"`
	Milestones         []MilestoneDraftRequest `json:"milestones"`
	VotingDurationDays int                     `json:"voting_duration_days,omitempty"`

	// Parsed values (populated by Validate)
	parsedGoal   domain.Amount
	parsedPayout domain.Address
}

func (r *CreateProposalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}

	goal, err := domain.ParseAmount(r.FundingGoal)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "funding_goal must be positive")
	}
	r.parsedGoal = goal

	if r.PayoutAddress != "" {
		payout, err := domain.ParseAddress(r.PayoutAddress)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "payout_address is invalid")
		}
		r.parsedPayout = payout
	}
	if r.VotingDurationDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "voting_duration_days must not be negative")
	}
	return nil
}

// ToServiceRequest converts the validated body into the registry request.
// The default duration applies when the caller did not choose one.
func (r *CreateProposalRequest) ToServiceRequest(defaultDuration time.Duration) proposalservice.CreateRequest {
	duration := defaultDuration
	if r.VotingDurationDays > 0 {
		duration = time.Duration(r.VotingDurationDays) * 24 * time.Hour
	}
	drafts := make([]models.MilestoneDraft, 0, len(r.Milestones))
	for _, m := range r.Milestones {
		drafts = append(drafts, models.MilestoneDraft{
			Title:       m.Title,
			Description: m.Description,
			Percentage:  m.Percentage,
		})
	}
	return proposalservice.CreateRequest{
		Title:          r.Title,
		Description:    r.Description,
		FundingGoal:    r.parsedGoal,
		PayoutAddress:  r.parsedPayout,
		Milestones:     drafts,
		VotingDuration: duration,
	}
}

// DonationRequest is the HTTP request body for POST /proposals/{id}/donations.
type DonationRequest struct {
	Amount int64 `json:"amount"`

	parsedAmount domain.Amount
}

func (r *DonationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	r.parsedAmount = amount
	return nil
}

func (r *DonationRequest) ParsedAmount() domain.Amount {
	return r.parsedAmount
}

// RejectionRequest is the HTTP request body for POST /proposals/{id}/rejection.
type RejectionRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r *RejectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// MilestoneDecisionRequest is the HTTP request body for
// POST /proposals/{id}/milestones/decision.
type MilestoneDecisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`

	parsedDecision milestoneservice.Decision
}

func (r *MilestoneDecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	switch milestoneservice.Decision(strings.ToLower(strings.TrimSpace(r.Decision))) {
	case milestoneservice.DecisionApprove:
		r.parsedDecision = milestoneservice.DecisionApprove
	case milestoneservice.DecisionReject:
		r.parsedDecision = milestoneservice.DecisionReject
	default:
		return dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	return nil
}

func (r *MilestoneDecisionRequest) ParsedDecision() milestoneservice.Decision {
	return r.parsedDecision
}

// MetadataRequest is the HTTP request body for PUT /proposals/{id}/metadata.
type MetadataRequest struct {
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (r *MetadataRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Tags = platformstrings.DedupeAndTrimLower(r.Tags)
	if len(r.Tags) > 16 {
		return dErrors.New(dErrors.CodeValidation, "at most 16 tags are allowed")
	}
	return nil
}
