package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fundgate/internal/funding/transfer"
	"fundgate/internal/funding/transfer/mocks"
	"fundgate/internal/proposal/models"
	"fundgate/internal/proposal/store"
	"fundgate/pkg/domain"
	dErrors "fundgate/pkg/domain-errors"
)

const treasury = domain.Address("0xtreasury")

var (
	creator = domain.Actor{Address: "0xcreator", Role: domain.RoleParticipant}
	owner   = domain.Actor{Address: "0xowner", Role: domain.RoleOwner}
)

type ExecutorSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockTransferer *mocks.MockTransferer
	store          *store.InMemoryStore
	executor       *Executor
	ctx            context.Context
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockTransferer = mocks.NewMockTransferer(s.ctrl)
	s.store = store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.executor = New(s.store, s.mockTransferer, treasury, true, WithLogger(logger))
	s.ctx = context.Background()
}

func (s *ExecutorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ExecutorSuite) createActiveProposal(percentages ...int) domain.ProposalID {
	drafts := make([]models.MilestoneDraft, len(percentages))
	for i, p := range percentages {
		drafts[i] = models.MilestoneDraft{Title: "m", Description: "d", Percentage: p}
	}
	plan, err := models.NewPlan(drafts, 1000)
	s.Require().NoError(err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.store.Create(s.ctx, &models.Proposal{
		Creator:        creator.Address,
		Title:          "clean water",
		Description:    "wells",
		FundingGoal:    1000,
		Status:         models.StatusActive,
		CreationTime:   now,
		VotingDeadline: now.Add(7 * 24 * time.Hour),
		Milestones:     plan,
	})
	s.Require().NoError(err)
	return id
}

func (s *ExecutorSuite) TestSubmitRequiresCreator() {
	id := s.createActiveProposal(100)

	err := s.executor.Submit(s.ctx, id, domain.Actor{Address: "0xsomeone", Role: domain.RoleParticipant})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.MilestoneSubmitted, p.Milestones[0].Status)
}

func (s *ExecutorSuite) TestDecideRequiresOwner() {
	id := s.createActiveProposal(100)
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	_, err := s.executor.Decide(s.ctx, id, creator, DecisionApprove, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ExecutorSuite) TestApprovalDisbursesToCreatorAndAdvances() {
	id := s.createActiveProposal(60, 40)
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	s.mockTransferer.EXPECT().
		Transfer(gomock.Any(), treasury, creator.Address, domain.Amount(600)).
		Return(transfer.Receipt{Reference: "tx-1"}, nil)

	outcome, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "work verified")
	s.Require().NoError(err)
	s.Equal(DecisionApprove, outcome.Decision)
	s.Require().NotNil(outcome.Disbursed)
	s.Equal(domain.Amount(600), *outcome.Disbursed)
	s.False(outcome.Completed)

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.MilestoneApproved, p.Milestones[0].Status)
	s.Equal(1, p.CurrentMilestone)
	s.Equal(models.StatusActive, p.Status)
}

func (s *ExecutorSuite) TestApprovingLastMilestoneCompletesTheProposal() {
	id := s.createActiveProposal(60, 40)

	s.mockTransferer.EXPECT().
		Transfer(gomock.Any(), treasury, creator.Address, gomock.Any()).
		Return(transfer.Receipt{}, nil).
		Times(2)

	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))
	_, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
	s.Require().NoError(err)

	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))
	outcome, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.Equal(domain.Amount(400), *outcome.Disbursed)

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, p.Status)

	// Terminal: nothing left to submit.
	err = s.executor.Submit(s.ctx, id, creator)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ExecutorSuite) TestConcurrentApprovalsDisburseOnce() {
	id := s.createActiveProposal(100)
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	// The transferer must see exactly one call even when two approvals race;
	// the sleep keeps the first caller inside the critical section long
	// enough for the second to queue up behind it.
	s.mockTransferer.EXPECT().
		Transfer(gomock.Any(), treasury, creator.Address, domain.Amount(1000)).
		DoAndReturn(func(context.Context, domain.Address, domain.Address, domain.Amount) (transfer.Receipt, error) {
			time.Sleep(20 * time.Millisecond)
			return transfer.Receipt{Reference: "tx-once"}, nil
		}).
		Times(1)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
			errs <- err
		}()
	}
	first, second := <-errs, <-errs
	if first != nil {
		first, second = second, first
	}
	s.Require().NoError(first)
	s.True(dErrors.HasCode(second, dErrors.CodeInvalidState))

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, p.Status)
}

func (s *ExecutorSuite) TestRejectionHoldsThePointerAndAllowsResubmission() {
	id := s.createActiveProposal(100)
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	outcome, err := s.executor.Decide(s.ctx, id, owner, DecisionReject, "insufficient evidence")
	s.Require().NoError(err)
	s.Equal(DecisionReject, outcome.Decision)
	s.Nil(outcome.Disbursed)
	s.False(outcome.Completed)

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.MilestoneRejected, p.Milestones[0].Status)
	s.Equal(0, p.CurrentMilestone)

	// Resubmission is allowed, and the re-approved tranche disburses.
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))
	s.mockTransferer.EXPECT().
		Transfer(gomock.Any(), treasury, creator.Address, domain.Amount(1000)).
		Return(transfer.Receipt{}, nil)
	outcome, err = s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
	s.Require().NoError(err)
	s.True(outcome.Completed)
}

func (s *ExecutorSuite) TestResubmissionDisabled() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	executor := New(s.store, s.mockTransferer, treasury, false, WithLogger(logger))

	id := s.createActiveProposal(100)
	s.Require().NoError(executor.Submit(s.ctx, id, creator))
	_, err := executor.Decide(s.ctx, id, owner, DecisionReject, "")
	s.Require().NoError(err)

	err = executor.Submit(s.ctx, id, creator)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ExecutorSuite) TestUnconfirmedDisbursementLeavesMilestoneSubmitted() {
	id := s.createActiveProposal(100)
	s.Require().NoError(s.executor.Submit(s.ctx, id, creator))

	s.mockTransferer.EXPECT().
		Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(transfer.Receipt{}, errors.New("network timeout"))

	_, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	p, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.MilestoneSubmitted, p.Milestones[0].Status)
	s.Equal(0, p.CurrentMilestone)
	s.Equal(models.StatusActive, p.Status)
}

func (s *ExecutorSuite) TestDecideWithoutSubmission() {
	id := s.createActiveProposal(100)
	_, err := s.executor.Decide(s.ctx, id, owner, DecisionApprove, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ExecutorSuite) TestInvalidDecision() {
	id := s.createActiveProposal(100)
	_, err := s.executor.Decide(s.ctx, id, owner, Decision("maybe"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
