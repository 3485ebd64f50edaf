package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	return p
}

func (s *Store) queryRow(dst any, query string, args ...any) error {
	err := s.db.Meddler().QueryRow(s.db, dst, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return err
}

func (s *Store) queryAll(dst any, query string, args ...any) error {
	return s.db.Meddler().QueryAll(s.db, dst, s.db.Rebind(query), args...)
}

// GetProjectByID returns the project with the given id.
func (s *Store) GetProjectByID(_ context.Context, id string) (*Project, error) {
	var p Project
	if err := s.queryRow(&p, `SELECT * FROM projects WHERE id = ?`, id); err != nil {
		return nil, err
	}

	return &p, nil
}

// GetProject returns the project identified by its owner and index.
func (s *Store) GetProject(_ context.Context, owner common.Address, index uint64) (*Project, error) {
	var p Project
	err := s.queryRow(&p, `SELECT * FROM projects WHERE owner = ? AND project_index = ?`, owner.Hex(), index)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ListProjects returns projects matching the filter, newest first.
func (s *Store) ListProjects(_ context.Context, filter ProjectFilter) ([]*Project, error) {
	var (
		where []string
		args  []any
	)

	if filter.Owner != nil {
		where = append(where, "owner = ?")
		args = append(args, filter.Owner.Hex())
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := "SELECT * FROM projects"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	page := Page{Limit: filter.Limit, Offset: filter.Offset}.normalize()
	query += " ORDER BY block_number DESC, owner, project_index LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	projects := []*Project{}
	if err := s.queryAll(&projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// ListInvestments returns the investments of a project in chain order.
func (s *Store) ListInvestments(_ context.Context, owner common.Address, index uint64, page Page) ([]*Investment, error) {
	page = page.normalize()

	investments := []*Investment{}
	err := s.queryAll(&investments, `SELECT * FROM investments
		WHERE project_owner = ? AND project_index = ?
		ORDER BY block_number, log_index LIMIT ? OFFSET ?`,
		owner.Hex(), index, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	return investments, nil
}

// ListInvestmentsByFunder returns every investment made by the funder in chain order.
func (s *Store) ListInvestmentsByFunder(_ context.Context, funder common.Address, page Page) ([]*Investment, error) {
	page = page.normalize()

	investments := []*Investment{}
	err := s.queryAll(&investments, `SELECT * FROM investments
		WHERE funder = ? ORDER BY block_number, log_index LIMIT ? OFFSET ?`,
		funder.Hex(), page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	return investments, nil
}

// InvestmentSummary aggregates all investments of a project.
// Amounts are summed as decimals, so the totals are exact.
func (s *Store) InvestmentSummary(_ context.Context, owner common.Address, index uint64) (*InvestmentSummary, error) {
	investments := []*Investment{}
	err := s.queryAll(&investments, `SELECT * FROM investments
		WHERE project_owner = ? AND project_index = ?`, owner.Hex(), index)
	if err != nil {
		return nil, fmt.Errorf("failed to load investments: %w", err)
	}

	summary := &InvestmentSummary{
		TotalAmount:       decimal.Zero,
		AverageInvestment: decimal.Zero,
		ByFunder:          []FunderInvestment{},
	}

	byFunder := make(map[common.Address]*FunderInvestment)
	for _, inv := range investments {
		summary.TotalInvestments++
		summary.TotalAmount = summary.TotalAmount.Add(inv.Amount)

		f, ok := byFunder[inv.Funder]
		if !ok {
			f = &FunderInvestment{Funder: inv.Funder, TotalAmount: decimal.Zero}
			byFunder[inv.Funder] = f
		}
		f.Investments++
		f.TotalAmount = f.TotalAmount.Add(inv.Amount)
	}

	summary.TotalInvestors = len(byFunder)
	if summary.TotalInvestments > 0 {
		summary.AverageInvestment = summary.TotalAmount.Div(decimal.NewFromInt(int64(summary.TotalInvestments)))
	}

	for _, f := range byFunder {
		summary.ByFunder = append(summary.ByFunder, *f)
	}
	sort.Slice(summary.ByFunder, func(i, j int) bool {
		a, b := summary.ByFunder[i], summary.ByFunder[j]
		if c := a.TotalAmount.Cmp(b.TotalAmount); c != 0 {
			return c > 0
		}
		return a.Funder.Hex() < b.Funder.Hex()
	})

	return summary, nil
}

// ListVotingCycles returns the voting cycles of a project ordered by cycle number.
// With activeOnly set, ended cycles are left out.
func (s *Store) ListVotingCycles(
	_ context.Context, owner common.Address, index uint64, activeOnly bool,
) ([]*VotingCycle, error) {
	query := `SELECT * FROM voting_cycles WHERE project_owner = ? AND project_index = ?`
	if activeOnly {
		query += ` AND ended = FALSE`
	}
	query += ` ORDER BY voting_cycle`

	cycles := []*VotingCycle{}
	if err := s.queryAll(&cycles, query, owner.Hex(), index); err != nil {
		return nil, fmt.Errorf("failed to list voting cycles: %w", err)
	}

	return cycles, nil
}

// GetVotingCycle returns a single voting cycle.
func (s *Store) GetVotingCycle(_ context.Context, owner common.Address, index, cycle uint64) (*VotingCycle, error) {
	var c VotingCycle
	err := s.queryRow(&c, `SELECT * FROM voting_cycles
		WHERE project_owner = ? AND project_index = ? AND voting_cycle = ?`, owner.Hex(), index, cycle)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ListVotes returns the votes of a voting cycle in chain order.
func (s *Store) ListVotes(_ context.Context, owner common.Address, index, cycle uint64) ([]*Vote, error) {
	votes := []*Vote{}
	err := s.queryAll(&votes, `SELECT * FROM votes
		WHERE project_owner = ? AND project_index = ? AND voting_cycle = ?
		ORDER BY block_number, log_index`, owner.Hex(), index, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	return votes, nil
}

// HasVoted reports whether voter has at least one vote recorded in the cycle.
func (s *Store) HasVoted(ctx context.Context, owner common.Address, index, cycle uint64, voter common.Address) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM votes
		WHERE project_owner = ? AND project_index = ? AND voting_cycle = ? AND voter = ?`),
		owner.Hex(), index, cycle, voter.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}

	return count > 0, nil
}

// Counts returns the number of rows per read-model table.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	tables := []string{tableProjects, tableInvestments, tableFundReleases, tableVotingCycles, tableVotes}
	counts := make(map[string]int64, len(tables))

	for _, table := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	return counts, nil
}
