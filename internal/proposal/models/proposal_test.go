package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
)

func pendingProposal(t *testing.T) *Proposal {
	t.Helper()
	plan, err := NewPlan(drafts(50, 50), 1000)
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Proposal{
		ID:             1,
		Creator:        "0xcreator",
		Title:          "clean water",
		Description:    "wells for the village",
		FundingGoal:    1000,
		Status:         StatusPending,
		CreationTime:   now,
		VotingDeadline: now.Add(7 * 24 * time.Hour),
		Milestones:     plan,
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusActive))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.True(t, StatusActive.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusActive.CanTransitionTo(StatusPending))
	assert.False(t, StatusRejected.CanTransitionTo(StatusActive))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusActive))
}

func TestCanAcceptVote(t *testing.T) {
	p := pendingProposal(t)
	inWindow := p.CreationTime.Add(time.Hour)

	t.Run("accepts a fresh vote", func(t *testing.T) {
		require.NoError(t, p.CanAcceptVote("0xvoter", inWindow))
	})

	t.Run("duplicate vote", func(t *testing.T) {
		p := pendingProposal(t)
		p.ApplyVote("0xvoter")
		err := p.CanAcceptVote("0xvoter", inWindow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyVoted))
	})

	t.Run("past deadline", func(t *testing.T) {
		err := p.CanAcceptVote("0xvoter", p.VotingDeadline.Add(time.Second))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeVotingClosed))
	})

	t.Run("exactly at deadline is still open", func(t *testing.T) {
		require.NoError(t, p.CanAcceptVote("0xvoter", p.VotingDeadline))
	})

	t.Run("non-pending status wins over duplicate", func(t *testing.T) {
		p := pendingProposal(t)
		p.ApplyVote("0xvoter")
		p.ApplyActivation()
		err := p.CanAcceptVote("0xvoter", inWindow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeVotingClosed))
	})
}

func TestExpired(t *testing.T) {
	p := pendingProposal(t)
	assert.False(t, p.Expired(p.VotingDeadline))
	assert.True(t, p.Expired(p.VotingDeadline.Add(time.Second)))

	p.ApplyActivation()
	assert.False(t, p.Expired(p.VotingDeadline.Add(time.Hour)))
}

func TestCanDonate(t *testing.T) {
	p := pendingProposal(t)

	err := p.CanDonate(100)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAcceptingFunds))

	p.ApplyActivation()
	require.NoError(t, p.CanDonate(100))

	err = p.CanDonate(0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	p.ApplyDonation(100)
	p.ApplyDonation(400)
	assert.Equal(t, domain.Amount(500), p.TotalRaised)
}

func TestRoutingTarget(t *testing.T) {
	p := pendingProposal(t)
	assert.Equal(t, domain.Address("treasury"), p.RoutingTarget("treasury"))

	p.PayoutAddress = "0xpayout"
	assert.Equal(t, domain.Address("0xpayout"), p.RoutingTarget("treasury"))
}

func TestMilestoneFlow(t *testing.T) {
	t.Run("submission requires active status and the creator", func(t *testing.T) {
		p := pendingProposal(t)
		err := p.CanSubmitMilestone("0xcreator", true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		p.ApplyActivation()
		err = p.CanSubmitMilestone("0xsomeone", true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		require.NoError(t, p.CanSubmitMilestone("0xcreator", true))
	})

	t.Run("decision requires a submitted milestone", func(t *testing.T) {
		p := pendingProposal(t)
		p.ApplyActivation()
		err := p.CanDecideMilestone()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		p.ApplyMilestoneSubmission()
		require.NoError(t, p.CanDecideMilestone())
	})

	t.Run("approval advances the pointer and completes on the last", func(t *testing.T) {
		p := pendingProposal(t)
		p.ApplyActivation()

		p.ApplyMilestoneSubmission()
		amount, completed := p.ApplyMilestoneApproval()
		assert.Equal(t, domain.Amount(500), amount)
		assert.False(t, completed)
		assert.Equal(t, 1, p.CurrentMilestone)
		assert.Equal(t, StatusActive, p.Status)

		p.ApplyMilestoneSubmission()
		amount, completed = p.ApplyMilestoneApproval()
		assert.Equal(t, domain.Amount(500), amount)
		assert.True(t, completed)
		assert.Equal(t, StatusCompleted, p.Status)

		// Nothing left to submit or decide.
		err := p.CanSubmitMilestone("0xcreator", true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		err = p.CanDecideMilestone()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("rejection holds the pointer and gates resubmission on policy", func(t *testing.T) {
		p := pendingProposal(t)
		p.ApplyActivation()
		p.ApplyMilestoneSubmission()
		p.ApplyMilestoneRejection()

		assert.Equal(t, 0, p.CurrentMilestone)
		assert.Equal(t, MilestoneRejected, p.Milestones[0].Status)

		require.NoError(t, p.CanSubmitMilestone("0xcreator", true))
		err := p.CanSubmitMilestone("0xcreator", false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestClone(t *testing.T) {
	p := pendingProposal(t)
	p.ApplyVote("0xvoter")

	cp := p.Clone()
	cp.ApplyVote("0xother")
	cp.Milestones[0].Status = MilestoneApproved

	assert.Equal(t, 1, p.TotalVotes())
	assert.Equal(t, MilestonePending, p.Milestones[0].Status)
}
