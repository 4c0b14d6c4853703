package models

import (
	"time"

	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
)

// ProposalStatus is the campaign lifecycle state.
//
// Transitions: Pending -> Active -> Completed, with Pending -> Rejected as
// the alternate terminal branch. No transition is reversible.
type ProposalStatus string

const (
	StatusPending   ProposalStatus = "pending"
	StatusActive    ProposalStatus = "active"
	StatusRejected  ProposalStatus = "rejected"
	StatusCompleted ProposalStatus = "completed"
)

// CanTransitionTo encodes the lifecycle state machine.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusRejected
	case StatusActive:
		return next == StatusCompleted
	default:
		return false
	}
}

// Proposal is the aggregate record of one campaign.
//
// Invariants:
//   - Milestones are fixed at creation; only milestone status and the
//     pointer mutate afterward
//   - Milestone percentages sum to exactly 100
//   - TotalRaised only ever increases, and only by confirmed donations
//   - Votes is a set: one vote per address, duplicates structurally impossible
//   - CurrentMilestone only advances forward
//
// The aggregate exclusively owns its milestone sequence and vote set.
// Over-funding is permitted: TotalRaised <= FundingGoal is NOT enforced.
type Proposal struct {
	ID          domain.ProposalID
	Creator     domain.Address
	Title       string
	Description string

	// PayoutAddress receives donations when set; the treasury is the
	// fallback routing target. Milestone disbursements always go to the
	// creator.
	PayoutAddress domain.Address

	FundingGoal domain.Amount
	TotalRaised domain.Amount

	Status         ProposalStatus
	CreationTime   time.Time
	VotingDeadline time.Time

	Milestones       []Milestone
	CurrentMilestone int

	Votes []domain.Address
}

// TotalVotes is the size of the vote set.
func (p *Proposal) TotalVotes() int {
	return len(p.Votes)
}

// HasVoted reports whether the address already voted on this proposal.
func (p *Proposal) HasVoted(voter domain.Address) bool {
	for _, v := range p.Votes {
		if v == voter {
			return true
		}
	}
	return false
}

// Expired reports whether the proposal is Pending past its voting deadline.
func (p *Proposal) Expired(now time.Time) bool {
	return p.Status == StatusPending && now.After(p.VotingDeadline)
}

// CanAcceptVote checks vote preconditions in contract order: lifecycle
// state, deadline, then duplicate detection.
func (p *Proposal) CanAcceptVote(voter domain.Address, now time.Time) error {
	if p.Status != StatusPending {
		return dErrors.New(dErrors.CodeVotingClosed, "proposal is no longer accepting votes")
	}
	if now.After(p.VotingDeadline) {
		return dErrors.New(dErrors.CodeVotingClosed, "voting deadline has passed")
	}
	if p.HasVoted(voter) {
		return dErrors.New(dErrors.CodeAlreadyVoted, "address has already voted on this proposal")
	}
	return nil
}

// ApplyVote inserts the voter into the vote set. Call CanAcceptVote first.
func (p *Proposal) ApplyVote(voter domain.Address) {
	p.Votes = append(p.Votes, voter)
}

// CanActivate checks the Pending -> Active transition.
func (p *Proposal) CanActivate() error {
	if !p.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvalidState, "proposal cannot be activated from status "+string(p.Status))
	}
	return nil
}

// ApplyActivation transitions the proposal to Active.
func (p *Proposal) ApplyActivation() {
	p.Status = StatusActive
}

// CanReject checks the Pending -> Rejected transition.
func (p *Proposal) CanReject() error {
	if !p.Status.CanTransitionTo(StatusRejected) {
		return dErrors.New(dErrors.CodeInvalidState, "proposal cannot be rejected from status "+string(p.Status))
	}
	return nil
}

// ApplyRejection transitions the proposal to Rejected. Terminal: no funds
// are ever accepted afterwards.
func (p *Proposal) ApplyRejection() {
	p.Status = StatusRejected
}

// CanDonate checks donation preconditions.
func (p *Proposal) CanDonate(amount domain.Amount) error {
	if p.Status != StatusActive {
		return dErrors.New(dErrors.CodeNotAcceptingFunds, "proposal is not accepting funds")
	}
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "donation amount must be positive")
	}
	return nil
}

// ApplyDonation records a confirmed value transfer into the proposal.
func (p *Proposal) ApplyDonation(amount domain.Amount) {
	p.TotalRaised += amount
}

// RoutingTarget resolves where a donation's value should go: the proposal's
// payout address when set, otherwise the platform treasury.
func (p *Proposal) RoutingTarget(treasury domain.Address) domain.Address {
	if p.PayoutAddress.IsZero() {
		return treasury
	}
	return p.PayoutAddress
}

// currentMilestone returns the milestone under the pointer, or nil when the
// pointer has run off the end (all tranches decided).
func (p *Proposal) currentMilestone() *Milestone {
	if p.CurrentMilestone < 0 || p.CurrentMilestone >= len(p.Milestones) {
		return nil
	}
	return &p.Milestones[p.CurrentMilestone]
}

// CanSubmitMilestone checks milestone submission preconditions: only the
// creator may submit, the proposal must be Active, and the target milestone
// must be Pending (or Rejected when resubmission is allowed).
func (p *Proposal) CanSubmitMilestone(actor domain.Address, allowResubmission bool) error {
	if p.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvalidState, "milestones can only be submitted on active proposals")
	}
	if actor != p.Creator {
		return dErrors.New(dErrors.CodeUnauthorized, "only the proposal creator may submit milestones")
	}
	ms := p.currentMilestone()
	if ms == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no milestone left to submit")
	}
	if ms.Status == MilestoneRejected && allowResubmission {
		return nil
	}
	if ms.Status != MilestonePending {
		return dErrors.New(dErrors.CodeInvalidState, "current milestone is not awaiting submission")
	}
	return nil
}

// ApplyMilestoneSubmission marks the current milestone Submitted.
func (p *Proposal) ApplyMilestoneSubmission() {
	p.Milestones[p.CurrentMilestone].Status = MilestoneSubmitted
}

// CanDecideMilestone checks that the current milestone awaits a decision.
func (p *Proposal) CanDecideMilestone() error {
	if p.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvalidState, "milestones can only be decided on active proposals")
	}
	ms := p.currentMilestone()
	if ms == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no milestone left to decide")
	}
	if ms.Status != MilestoneSubmitted {
		return dErrors.New(dErrors.CodeInvalidState, "current milestone has not been submitted")
	}
	return nil
}

// ApplyMilestoneApproval marks the current milestone Approved, advances the
// pointer, and completes the proposal when the approved milestone was the
// last one. Returns the disbursement amount and whether the campaign is now
// Completed.
func (p *Proposal) ApplyMilestoneApproval() (domain.Amount, bool) {
	ms := &p.Milestones[p.CurrentMilestone]
	ms.Status = MilestoneApproved
	p.CurrentMilestone++
	if p.CurrentMilestone == len(p.Milestones) {
		p.Status = StatusCompleted
		return ms.FundsAllocated, true
	}
	return ms.FundsAllocated, false
}

// ApplyMilestoneRejection marks the current milestone Rejected. The pointer
// does not advance and the proposal remains Active.
func (p *Proposal) ApplyMilestoneRejection() {
	p.Milestones[p.CurrentMilestone].Status = MilestoneRejected
}

// Clone deep-copies the aggregate so store snapshots never alias live state.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Milestones = append([]Milestone(nil), p.Milestones...)
	cp.Votes = append([]domain.Address(nil), p.Votes...)
	return &cp
}
