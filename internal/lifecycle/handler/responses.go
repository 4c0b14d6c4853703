package handler

import (
	"time"

	"fundgate/internal/audit"
	fundingservice "fundgate/internal/funding/service"
	lifecycleservice "fundgate/internal/lifecycle/service"
	milestoneservice "fundgate/internal/milestone/service"
	"fundgate/internal/proposal/models"
	votingservice "fundgate/internal/voting/service"
)

// MilestoneResponse is one milestone entry in a proposal response.
type MilestoneResponse struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Percentage     int    `json:"percentage"`
	Status         string `json:"status"`
	FundsAllocated int64  `json:"funds_allocated"`
}

// MetadataResponse is the presentation metadata attached to details.
type MetadataResponse struct {
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// ProposalResponse is the full proposal representation.
type ProposalResponse struct {
	ID               uint64              `json:"id"`
	Creator          string              `json:"creator"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	PayoutAddress    string              `json:"payout_address,omitempty"`
	FundingGoal      int64               `json:"funding_goal"`
	TotalRaised      int64               `json:"total_raised"`
	Status           string              `json:"status"`
	CreationTime     time.Time           `json:"creation_time"`
	VotingDeadline   time.Time           `json:"voting_deadline"`
	TotalVotes       int                 `json:"total_votes"`
	CurrentMilestone int                 `json:"current_milestone"`
	Milestones       []MilestoneResponse `json:"milestones"`
	Metadata         *MetadataResponse   `json:"metadata,omitempty"`
}

// FromProposal converts a proposal snapshot to its HTTP representation.
func FromProposal(p *models.Proposal) *ProposalResponse {
	milestones := make([]MilestoneResponse, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		milestones = append(milestones, MilestoneResponse{
			Title:          m.Title,
			Description:    m.Description,
			Percentage:     m.Percentage,
			Status:         string(m.Status),
			FundsAllocated: m.FundsAllocated.Int64(),
		})
	}
	return &ProposalResponse{
		ID:               uint64(p.ID),
		Creator:          p.Creator.String(),
		Title:            p.Title,
		Description:      p.Description,
		PayoutAddress:    p.PayoutAddress.String(),
		FundingGoal:      p.FundingGoal.Int64(),
		TotalRaised:      p.TotalRaised.Int64(),
		Status:           string(p.Status),
		CreationTime:     p.CreationTime,
		VotingDeadline:   p.VotingDeadline,
		TotalVotes:       p.TotalVotes(),
		CurrentMilestone: p.CurrentMilestone,
		Milestones:       milestones,
	}
}

// FromDetails converts an enriched snapshot to its HTTP representation.
func FromDetails(d lifecycleservice.Details) *ProposalResponse {
	resp := FromProposal(d.Proposal)
	if d.Metadata != nil {
		resp.Metadata = &MetadataResponse{
			ImageURL: d.Metadata.ImageURL,
			Tags:     d.Metadata.Tags,
		}
	}
	return resp
}

// ListResponse is the HTTP response for GET /proposals.
type ListResponse struct {
	Proposals []*ProposalResponse `json:"proposals"`
	Total     int                 `json:"total"`
}

// CountResponse is the HTTP response for GET /proposals/count.
type CountResponse struct {
	Total int `json:"total"`
}

// CreateProposalResponse is the HTTP response for POST /proposals.
type CreateProposalResponse struct {
	ID uint64 `json:"id"`
}

// VerificationStatusResponse is the HTTP response for
// GET /identity/verifications/{address}.
type VerificationStatusResponse struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// VoteResponse is the HTTP response for POST /proposals/{id}/votes.
type VoteResponse struct {
	TotalVotes    int  `json:"total_votes"`
	QuorumReached bool `json:"quorum_reached"`
}

// FromTally converts a vote tally to its HTTP representation.
func FromTally(t votingservice.Tally) *VoteResponse {
	return &VoteResponse{TotalVotes: t.TotalVotes, QuorumReached: t.QuorumReached}
}

// HasVotedResponse is the HTTP response for
// GET /proposals/{id}/votes/{address}.
type HasVotedResponse struct {
	Address string `json:"address"`
	Voted   bool   `json:"voted"`
}

// DonationResponse is the HTTP response for POST /proposals/{id}/donations.
type DonationResponse struct {
	Amount      int64  `json:"amount"`
	Target      string `json:"target"`
	ViaTreasury bool   `json:"via_treasury"`
	TotalRaised int64  `json:"total_raised"`
	Reference   string `json:"reference,omitempty"`
}

// FromDonation converts an accepted donation to its HTTP representation.
func FromDonation(d fundingservice.Donation) *DonationResponse {
	return &DonationResponse{
		Amount:      d.Amount.Int64(),
		Target:      d.Target.String(),
		ViaTreasury: d.ViaTreasury,
		TotalRaised: d.TotalRaised.Int64(),
		Reference:   d.Reference,
	}
}

// MilestoneDecisionResponse is the HTTP response for
// POST /proposals/{id}/milestones/decision.
type MilestoneDecisionResponse struct {
	Decision  string `json:"decision"`
	Disbursed *int64 `json:"disbursed,omitempty"`
	Completed bool   `json:"completed"`
}

// FromOutcome converts a milestone decision outcome to its HTTP
// representation.
func FromOutcome(o milestoneservice.Outcome) *MilestoneDecisionResponse {
	resp := &MilestoneDecisionResponse{
		Decision:  string(o.Decision),
		Completed: o.Completed,
	}
	if o.Disbursed != nil {
		v := o.Disbursed.Int64()
		resp.Disbursed = &v
	}
	return resp
}

// AuditEventResponse is one audit trail entry.
type AuditEventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Amount    int64     `json:"amount,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// FromAuditTrail converts recorded events to their HTTP representation.
func FromAuditTrail(events []audit.Event) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, AuditEventResponse{
			ID:        ev.ID,
			Timestamp: ev.Timestamp,
			Actor:     ev.Actor.String(),
			Action:    ev.Action,
			Amount:    ev.Amount.Int64(),
			Decision:  ev.Decision,
			Reason:    ev.Reason,
		})
	}
	return out
}
