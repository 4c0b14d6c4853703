package models

import (
	"fmt"

	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
)

// MilestoneStatus tracks one disbursement tranche.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneSubmitted MilestoneStatus = "submitted"
	MilestoneApproved  MilestoneStatus = "approved"
	MilestoneRejected  MilestoneStatus = "rejected"
)

// Milestone is one percentage-weighted tranche of a proposal's goal.
// FundsAllocated is derived once at plan validation and never recomputed.
type Milestone struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Percentage     int             `json:"percentage"`
	Status         MilestoneStatus `json:"status"`
	FundsAllocated domain.Amount   `json:"funds_allocated"`
}

// MilestoneDraft is the caller-supplied shape of a tranche before
// validation.
type MilestoneDraft struct {
	Title       string
	Description string
	Percentage  int
}

// NewPlan validates a disbursement plan against the funding goal and
// returns the milestone sequence. Rules are checked in order: the plan must
// be non-empty, every percentage must be a positive integer no greater than
// 100, and the percentages must sum to exactly 100.
func NewPlan(drafts []MilestoneDraft, fundingGoal domain.Amount) ([]Milestone, error) {
	if len(drafts) == 0 {
		return nil, dErrors.New(dErrors.CodeEmptyPlan, "milestone plan must not be empty")
	}
	sum := 0
	for i, d := range drafts {
		if d.Percentage < 1 || d.Percentage > 100 {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("milestone %d: percentage must be in [1,100], got %d", i, d.Percentage))
		}
		sum += d.Percentage
	}
	if sum != 100 {
		return nil, dErrors.New(dErrors.CodePercentageMismatch,
			fmt.Sprintf("milestone percentages must sum to 100, got %d", sum))
	}
	milestones := make([]Milestone, len(drafts))
	for i, d := range drafts {
		milestones[i] = Milestone{
			Title:          d.Title,
			Description:    d.Description,
			Percentage:     d.Percentage,
			Status:         MilestonePending,
			FundsAllocated: fundingGoal * domain.Amount(d.Percentage) / 100,
		}
	}
	return milestones, nil
}
