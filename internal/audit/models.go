package audit

import (
	"time"

	"fundgate/pkg/domain"
)

// Event is emitted from domain logic to capture governance state
// transitions. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     domain.Address    `json:"actor"`
	Action    string            `json:"action"`
	Proposal  domain.ProposalID `json:"proposal,omitempty"`
	Amount    domain.Amount     `json:"amount,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Actions recorded by the engine. One per state transition so the audit
// trail replays the full campaign history.
const (
	EventIdentityVerified   = "identity_verified"
	EventProposalCreated    = "proposal_created"
	EventVoteCast           = "vote_cast"
	EventProposalActivated  = "proposal_activated"
	EventProposalRejected   = "proposal_rejected"
	EventProposalExpired    = "proposal_expired"
	EventDonationRecorded   = "donation_recorded"
	EventMilestoneSubmitted = "milestone_submitted"
	EventMilestoneApproved  = "milestone_approved"
	EventMilestoneRejected  = "milestone_rejected"
	EventProposalCompleted  = "proposal_completed"
)
