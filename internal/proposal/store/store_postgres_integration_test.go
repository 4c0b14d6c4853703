//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fundgate/internal/proposal/models"
	"fundgate/internal/proposal/store"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
	"fundgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	_, err := s.postgres.DB.ExecContext(context.Background(), store.Schema)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "proposals")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newProposal() *models.Proposal {
	now := time.Now().UTC().Truncate(time.Microsecond)
	milestones, err := models.NewPlan([]models.MilestoneDraft{
		{Title: "prototype", Percentage: 60},
		{Title: "launch", Percentage: 40},
	}, 1000)
	s.Require().NoError(err)

	return &models.Proposal{
		Creator:        "0xcreator",
		PayoutAddress:  "0xpayout",
		Title:          "community garden",
		Description:    "a garden for the community",
		FundingGoal:    1000,
		Status:         models.StatusPending,
		CreationTime:   now,
		VotingDeadline: now.Add(7 * 24 * time.Hour),
		Milestones:     milestones,
	}
}

func (s *PostgresStoreSuite) TestCreateAssignsSequentialIDs() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, s.newProposal())
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, s.newProposal())
	s.Require().NoError(err)

	s.Equal(domain.ProposalID(1), first)
	s.Equal(domain.ProposalID(2), second)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *PostgresStoreSuite) TestGetRoundTripsAggregate() {
	ctx := context.Background()
	p := s.newProposal()

	id, err := s.store.Create(ctx, p)
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)

	s.Equal(id, got.ID)
	s.Equal(p.Creator, got.Creator)
	s.Equal(p.PayoutAddress, got.PayoutAddress)
	s.Equal(p.Title, got.Title)
	s.Equal(p.FundingGoal, got.FundingGoal)
	s.Equal(models.StatusPending, got.Status)
	s.True(p.CreationTime.Equal(got.CreationTime))
	s.True(p.VotingDeadline.Equal(got.VotingDeadline))
	s.Equal(p.Milestones, got.Milestones)
	s.Equal(0, got.CurrentMilestone)
	s.Empty(got.Votes)
}

func (s *PostgresStoreSuite) TestGetUnknownID() {
	_, err := s.store.Get(context.Background(), 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateUnknownID() {
	_, err := s.store.Update(context.Background(), 999, func(p *models.Proposal) error {
		return nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateRollsBackOnCallbackError() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, s.newProposal())
	s.Require().NoError(err)

	boom := fmt.Errorf("callback refused")
	_, err = s.store.Update(ctx, id, func(p *models.Proposal) error {
		p.ApplyVote("0xvoter")
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Empty(got.Votes, "failed update must not persist")
}

func (s *PostgresStoreSuite) TestConcurrentVotesSerializeOnRowLock() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, s.newProposal())
	s.Require().NoError(err)

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := domain.Address(fmt.Sprintf("0xvoter%02d", n))
			_, err := s.store.Update(ctx, id, func(p *models.Proposal) error {
				now := p.VotingDeadline.Add(-time.Hour)
				if err := p.CanAcceptVote(voter, now); err != nil {
					return err
				}
				p.ApplyVote(voter)
				return nil
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Len(got.Votes, voters)
}

func (s *PostgresStoreSuite) TestListOrdersByID() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := s.newProposal()
		p.Title = fmt.Sprintf("proposal %d", i)
		_, err := s.store.Create(ctx, p)
		s.Require().NoError(err)
	}

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	for i, p := range all {
		s.Equal(domain.ProposalID(i+1), p.ID)
	}
}

func (s *PostgresStoreSuite) TestMilestoneProgressPersists() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, s.newProposal())
	s.Require().NoError(err)

	_, err = s.store.Update(ctx, id, func(p *models.Proposal) error {
		p.ApplyActivation()
		p.Milestones[0].Status = models.MilestoneApproved
		p.CurrentMilestone = 1
		p.TotalRaised = 250
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, got.Status)
	s.Equal(models.MilestoneApproved, got.Milestones[0].Status)
	s.Equal(1, got.CurrentMilestone)
	s.Equal(domain.Amount(250), got.TotalRaised)
}
