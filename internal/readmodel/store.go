// Package readmodel persists the projections of contract events and serves them to readers.
package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the read-model database. Writes go through InTx; reads are safe for concurrent use.
type Store struct {
	db          *db.DB
	maintenance db.Maintenance
	now         func() time.Time
}

// NewStore creates a store over an already migrated database.
func NewStore(database *db.DB, maintenance db.Maintenance) *Store {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	return &Store{
		db:          database,
		maintenance: maintenance,
		now:         time.Now,
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *db.DB {
	return s.db
}

// InTx runs fn in a single database transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so either all of fn's writes persist or none do.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := db.RollbackTx(sqlTx); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
			}
		}
	}()

	if err = fn(&Tx{tx: sqlTx, store: s, now: s.now().UTC().Unix()}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Tx is a read-model write transaction.
type Tx struct {
	tx    *sql.Tx
	store *Store
	now   int64
}

// SQL returns the raw transaction for writes that must commit together with the read model.
func (t *Tx) SQL() *sql.Tx {
	return t.tx
}

func (t *Tx) rebind(query string) string {
	return t.store.db.Rebind(query)
}

func (t *Tx) insert(table string, record any) error {
	if err := t.store.db.Meddler().Insert(t.tx, table, record); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

// ProjectExists reports whether a project with the given key exists.
func (t *Tx) ProjectExists(ctx context.Context, owner common.Address, index uint64) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM projects WHERE owner = ? AND project_index = ?`, owner.Hex(), index)
}

// InsertProject stores a new project, assigning its id and timestamps.
func (t *Tx) InsertProject(p *Project) error {
	p.ID = uuid.NewString()
	p.CreatedAt = t.now
	p.UpdatedAt = t.now

	return t.insert(tableProjects, p)
}

// AddProjectFunded increments Project.Funded. It reports false when no project matches.
func (t *Tx) AddProjectFunded(ctx context.Context, owner common.Address, index uint64, amount decimal.Decimal) (bool, error) {
	return t.addProjectAmount(ctx, "funded", owner, index, amount)
}

// AddProjectReleased increments Project.Released. It reports false when no project matches.
func (t *Tx) AddProjectReleased(ctx context.Context, owner common.Address, index uint64, amount decimal.Decimal) (bool, error) {
	return t.addProjectAmount(ctx, "released", owner, index, amount)
}

// addProjectAmount adds to a decimal text column. column is one of the fixed names above.
func (t *Tx) addProjectAmount(
	ctx context.Context, column string, owner common.Address, index uint64, amount decimal.Decimal,
) (bool, error) {
	var current decimal.Decimal

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE owner = ? AND project_index = ?`, column)
	err := t.tx.QueryRowContext(ctx, t.rebind(query), owner.Hex(), index).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read project %s: %w", column, err)
	}

	update := fmt.Sprintf(`UPDATE projects SET %s = ?, updated_at = ? WHERE owner = ? AND project_index = ?`, column)
	if _, err := t.tx.ExecContext(ctx, t.rebind(update), current.Add(amount), t.now, owner.Hex(), index); err != nil {
		return false, fmt.Errorf("failed to update project %s: %w", column, err)
	}

	return true, nil
}

// InsertInvestment stores an investment record.
func (t *Tx) InsertInvestment(inv *Investment) error {
	inv.ID = uuid.NewString()
	inv.CreatedAt = t.now

	return t.insert(tableInvestments, inv)
}

// InsertFundsRelease stores a funds release record.
func (t *Tx) InsertFundsRelease(r *FundsRelease) error {
	r.ID = uuid.NewString()
	r.CreatedAt = t.now

	return t.insert(tableFundReleases, r)
}

// VotingCycleExists reports whether the voting cycle exists.
func (t *Tx) VotingCycleExists(ctx context.Context, owner common.Address, index, cycle uint64) (bool, error) {
	return t.exists(ctx,
		`SELECT 1 FROM voting_cycles WHERE project_owner = ? AND project_index = ? AND voting_cycle = ?`,
		owner.Hex(), index, cycle)
}

// InsertVotingCycle stores a new voting cycle with no votes that has not ended.
func (t *Tx) InsertVotingCycle(c *VotingCycle) error {
	c.ID = uuid.NewString()
	c.VotesGathered = 0
	c.Ended = false
	c.CreatedAt = t.now
	c.UpdatedAt = t.now

	return t.insert(tableVotingCycles, c)
}

// IncrementVotesGathered adds one vote to the voting cycle. It reports false when no cycle matches.
func (t *Tx) IncrementVotesGathered(ctx context.Context, owner common.Address, index, cycle uint64) (bool, error) {
	return t.updateVotingCycle(ctx, `votes_gathered = votes_gathered + 1`, owner, index, cycle)
}

// EndVotingCycle marks exactly the given voting cycle as ended. It reports false when no cycle matches.
func (t *Tx) EndVotingCycle(ctx context.Context, owner common.Address, index, cycle uint64) (bool, error) {
	return t.updateVotingCycle(ctx, `ended = TRUE`, owner, index, cycle)
}

func (t *Tx) updateVotingCycle(
	ctx context.Context, set string, owner common.Address, index, cycle uint64,
) (bool, error) {
	query := fmt.Sprintf(`UPDATE voting_cycles SET %s, updated_at = ?
		WHERE project_owner = ? AND project_index = ? AND voting_cycle = ?`, set)

	res, err := t.tx.ExecContext(ctx, t.rebind(query), t.now, owner.Hex(), index, cycle)
	if err != nil {
		return false, fmt.Errorf("failed to update voting cycle: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n > 0, nil
}

// InsertVote stores a vote record.
func (t *Tx) InsertVote(v *Vote) error {
	v.ID = uuid.NewString()
	v.CreatedAt = t.now

	return t.insert(tableVotes, v)
}

// IsLogProcessed reports whether the log was already applied.
func (t *Tx) IsLogProcessed(ctx context.Context, txHash common.Hash, logIndex uint) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM processed_logs WHERE tx_hash = ? AND log_index = ?`, txHash.Hex(), logIndex)
}

// MarkLogProcessed records the log as applied.
func (t *Tx) MarkLogProcessed(txHash common.Hash, logIndex uint, blockNumber uint64) error {
	return t.insert(tableProcessedLogs, &ProcessedLog{TxHash: txHash, LogIndex: logIndex, BlockNumber: blockNumber})
}

func (t *Tx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, t.rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}
