package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

func seed(title string) *models.Proposal {
	return &models.Proposal{
		Creator:     "0xcreator",
		Title:       title,
		Description: "d",
		FundingGoal: 1000,
		Status:      models.StatusPending,
		Milestones: []models.Milestone{
			{Title: "m", Percentage: 100, Status: models.MilestonePending, FundsAllocated: 1000},
		},
	}
}

func TestMemoryCreateAssignsMonotonicIDs(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id1, err := s.Create(ctx, seed("a"))
	require.NoError(t, err)
	id2, err := s.Create(ctx, seed("b"))
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalID(1), id1)
	assert.Equal(t, domain.ProposalID(2), id2)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Title)
	assert.Equal(t, "b", all[1].Title)
}

func TestMemoryGetReturnsSnapshots(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id, err := s.Create(ctx, seed("a"))
	require.NoError(t, err)

	snap, err := s.Get(ctx, id)
	require.NoError(t, err)
	snap.ApplyVote("0xvoter")
	snap.Milestones[0].Status = models.MilestoneApproved

	fresh, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.TotalVotes())
	assert.Equal(t, models.MilestonePending, fresh.Milestones[0].Status)
}

func TestMemoryGetUnknownID(t *testing.T) {
	s := NewMemory()
	_, err := s.Get(context.Background(), 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryUpdate(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id, err := s.Create(ctx, seed("a"))
	require.NoError(t, err)

	t.Run("failed callback leaves the record untouched", func(t *testing.T) {
		_, err := s.Update(ctx, id, func(p *models.Proposal) error {
			p.ApplyVote("0xvoter")
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		p, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, p.TotalVotes())
	})

	t.Run("successful callback persists", func(t *testing.T) {
		updated, err := s.Update(ctx, id, func(p *models.Proposal) error {
			p.ApplyVote("0xvoter")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.TotalVotes())

		p, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, p.TotalVotes())
	})
}

func TestMemoryUpdateSerializesConcurrentVotes(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id, err := s.Create(ctx, seed("a"))
	require.NoError(t, err)

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := domain.Address(fmt.Sprintf("0xvoter%02d", n))
			_, _ = s.Update(ctx, id, func(p *models.Proposal) error {
				if p.HasVoted(voter) {
					return sentinel.ErrConflict
				}
				p.ApplyVote(voter)
				return nil
			})
		}(i)
	}
	wg.Wait()

	p, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, voters, p.TotalVotes())
	seen := make(map[domain.Address]bool)
	for _, v := range p.Votes {
		assert.False(t, seen[v], "duplicate vote for %s", v)
		seen[v] = true
	}
}
