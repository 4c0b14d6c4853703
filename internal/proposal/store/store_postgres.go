package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fundgate/internal/proposal/models"
	"fundgate/pkg/domain"
	"fundgate/pkg/platform/sentinel"
)

// PostgresStore persists proposals in PostgreSQL. Per-proposal serialization
// comes from SELECT ... FOR UPDATE inside a transaction: concurrent Update
// calls on the same id queue on the row lock, while different ids proceed in
// parallel. The milestone sequence is embedded as JSONB and the vote set as
// a text array, matching the aggregate's exclusive ownership of both.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the table this store expects. Kept here so integration tests
// and migrations share one source.
const Schema = `
CREATE TABLE IF NOT EXISTS proposals (
	id                BIGSERIAL PRIMARY KEY,
	creator           TEXT        NOT NULL,
	payout_address    TEXT        NOT NULL DEFAULT '',
	title             TEXT        NOT NULL,
	description       TEXT        NOT NULL,
	funding_goal      BIGINT      NOT NULL,
	total_raised      BIGINT      NOT NULL DEFAULT 0,
	status            TEXT        NOT NULL,
	creation_time     TIMESTAMPTZ NOT NULL,
	voting_deadline   TIMESTAMPTZ NOT NULL,
	milestones        JSONB       NOT NULL,
	current_milestone INT         NOT NULL DEFAULT 0,
	votes             TEXT[]      NOT NULL DEFAULT '{}'
)`

func (s *PostgresStore) Create(ctx context.Context, p *models.Proposal) (domain.ProposalID, error) {
	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		return 0, fmt.Errorf("marshal milestones: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO proposals
			(creator, payout_address, title, description, funding_goal, total_raised,
			 status, creation_time, voting_deadline, milestones, current_milestone, votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Creator.String(), p.PayoutAddress.String(), p.Title, p.Description,
		p.FundingGoal.Int64(), p.TotalRaised.Int64(), string(p.Status),
		p.CreationTime, p.VotingDeadline, milestones, p.CurrentMilestone,
		pq.Array(addressesToStrings(p.Votes)),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert proposal: %w", err)
	}
	return domain.ProposalID(id), nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM proposals WHERE id = $1`, uint64(id))
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` FROM proposals ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count proposals: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, id domain.ProposalID, fn func(p *models.Proposal) error) (_ *models.Proposal, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, selectColumns+` FROM proposals WHERE id = $1 FOR UPDATE`, uint64(id))
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock proposal: %w", err)
	}

	if err = fn(p); err != nil {
		return nil, err
	}

	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE proposals SET
			total_raised = $2, status = $3, milestones = $4,
			current_milestone = $5, votes = $6
		WHERE id = $1`,
		uint64(id), p.TotalRaised.Int64(), string(p.Status), milestones,
		p.CurrentMilestone, pq.Array(addressesToStrings(p.Votes)),
	)
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return p, nil
}

const selectColumns = `
	SELECT id, creator, payout_address, title, description, funding_goal,
	       total_raised, status, creation_time, voting_deadline, milestones,
	       current_milestone, votes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var (
		p              models.Proposal
		id             int64
		creator        string
		payout         string
		goal, raised   int64
		status         string
		creation       time.Time
		deadline       time.Time
		milestonesJSON []byte
		votes          pq.StringArray
	)
	err := row.Scan(&id, &creator, &payout, &p.Title, &p.Description, &goal,
		&raised, &status, &creation, &deadline, &milestonesJSON,
		&p.CurrentMilestone, &votes)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(milestonesJSON, &p.Milestones); err != nil {
		return nil, fmt.Errorf("unmarshal milestones: %w", err)
	}
	p.ID = domain.ProposalID(id)
	p.Creator = domain.Address(creator)
	p.PayoutAddress = domain.Address(payout)
	p.FundingGoal = domain.Amount(goal)
	p.TotalRaised = domain.Amount(raised)
	p.Status = models.ProposalStatus(status)
	p.CreationTime = creation
	p.VotingDeadline = deadline
	p.Votes = make([]domain.Address, len(votes))
	for i, v := range votes {
		p.Votes[i] = domain.Address(v)
	}
	return &p, nil
}

func addressesToStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
