package projection

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/contract"
	"github.com/fundify/indexer/internal/contract/contracttest"
	"github.com/fundify/indexer/internal/db"
	"github.com/fundify/indexer/internal/decoder"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/internal/metadata"
	"github.com/fundify/indexer/internal/migrations"
	"github.com/fundify/indexer/internal/readmodel"
	"github.com/fundify/indexer/pkg/config"
	"github.com/stretchr/testify/require"
)

var (
	ownerA  = common.HexToAddress("0x000000000000000000000000000000000000000A")
	funderB = common.HexToAddress("0x000000000000000000000000000000000000000B")
	wallet  = common.HexToAddress("0x000000000000000000000000000000000000000C")
)

// tableCheckpointer writes the checkpoint straight into sync_state.
type tableCheckpointer struct {
	database *db.DB
	fail     error
}

func (c *tableCheckpointer) SaveCheckpoint(ctx context.Context, q db.Querier, block uint64, hash common.Hash) error {
	if c.fail != nil {
		return c.fail
	}

	_, err := q.ExecContext(ctx, c.database.Rebind(
		`UPDATE sync_state SET last_indexed_block = ?, last_indexed_block_hash = ? WHERE id = 1`),
		block, hash.Hex())

	return err
}

func (c *tableCheckpointer) block(t *testing.T) uint64 {
	t.Helper()

	var block uint64
	require.NoError(t, c.database.QueryRow(`SELECT last_indexed_block FROM sync_state WHERE id = 1`).Scan(&block))

	return block
}

type fixture struct {
	projector    *Projector
	store        *readmodel.Store
	checkpointer *tableCheckpointer
	logs         *contracttest.Builder
}

func newFixture(t *testing.T, deduplicate bool) *fixture {
	t.Helper()

	database, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "projection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, migrations.RunMigrations(logger.NewNopLogger(), database))

	meta, err := metadata.NewSource(nil)
	require.NoError(t, err)

	store := readmodel.NewStore(database, nil)
	checkpointer := &tableCheckpointer{database: database}

	projector := New(store, decoder.New(contract.MustLoad()), meta, checkpointer,
		config.ProjectionConfig{Deduplicate: &deduplicate}, logger.NewNopLogger())

	return &fixture{
		projector:    projector,
		store:        store,
		checkpointer: checkpointer,
		logs:         contracttest.NewBuilder(t),
	}
}

func (f *fixture) created(index int64, goal int64) types.Log {
	return f.logs.Log(contract.EventProjectCreated,
		ownerA, big.NewInt(index), contracttest.Ether(goal), big.NewInt(2), big.NewInt(1700000000))
}

func (f *fixture) funded(investment, index int64, amount *big.Int) types.Log {
	return f.logs.Log(contract.EventProjectFunded,
		funderB, big.NewInt(investment), amount, ownerA, big.NewInt(index), big.NewInt(1700000001))
}

func (f *fixture) cycle(index, cycle int64) types.Log {
	return f.logs.Log(contract.EventVotingCycleInitiated,
		ownerA, big.NewInt(index), contracttest.Ether(1), wallet, big.NewInt(cycle), big.NewInt(1700086400), big.NewInt(2))
}

func (f *fixture) voted(index, cycle int64, voter common.Address) types.Log {
	return f.logs.Log(contract.EventVoted, ownerA, big.NewInt(index), voter, big.NewInt(cycle))
}

func (f *fixture) released(index, cycle int64, amount int64) types.Log {
	return f.logs.Log(contract.EventProjectFundsReleased,
		ownerA, big.NewInt(index), contracttest.Ether(amount), wallet, big.NewInt(cycle), big.NewInt(1700100000))
}

func TestProjectBatch_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	logs := []types.Log{f.created(0, 10), f.funded(0, 0, contracttest.Ether(1))}

	result, err := f.projector.ProjectBatch(ctx, logs, 5)
	require.NoError(t, err)
	require.Equal(t, 2, result.Applied)
	require.Equal(t, uint64(5), f.checkpointer.block(t))

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "10", project.Goal.String())
	require.Equal(t, "1", project.Funded.String())
	require.Equal(t, "0", project.Released.String())
	require.Equal(t, uint64(2), project.Milestones)
	require.NotEmpty(t, project.Title)
	require.NotEmpty(t, project.ID)

	investments, err := f.store.ListInvestments(ctx, ownerA, 0, readmodel.Page{})
	require.NoError(t, err)
	require.Len(t, investments, 1)
	require.Equal(t, "1", investments[0].Amount.String())
	require.Equal(t, funderB, investments[0].Funder)
}

func TestProjectBatch_FractionalAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	half, ok := new(big.Int).SetString("500000000000000000", 10)
	require.True(t, ok)

	_, err := f.projector.ProjectBatch(ctx,
		[]types.Log{f.created(0, 10), f.funded(0, 0, half), f.funded(1, 0, big.NewInt(1))}, 1)
	require.NoError(t, err)

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "0.500000000000000001", project.Funded.String())
}

func TestProjectBatch_Replay(t *testing.T) {
	tests := []struct {
		name        string
		deduplicate bool
		funded      string
		investments int
		duplicates  int
	}{
		{name: "deduplicated", deduplicate: true, funded: "1", investments: 1, duplicates: 1},
		{name: "re-applied", deduplicate: false, funded: "2", investments: 2, duplicates: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tt.deduplicate)

			created := f.created(0, 10)
			funded := f.funded(0, 0, contracttest.Ether(1))

			_, err := f.projector.ProjectBatch(ctx, []types.Log{created, funded}, 1)
			require.NoError(t, err)

			result, err := f.projector.ProjectBatch(ctx, []types.Log{funded}, 1)
			require.NoError(t, err)
			require.Equal(t, tt.duplicates, result.Duplicates)

			project, err := f.store.GetProject(ctx, ownerA, 0)
			require.NoError(t, err)
			require.Equal(t, tt.funded, project.Funded.String())

			investments, err := f.store.ListInvestments(ctx, ownerA, 0, readmodel.Page{})
			require.NoError(t, err)
			require.Len(t, investments, tt.investments)
		})
	}
}

func TestProjectBatch_DuplicateProjectSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	created := f.created(0, 10)

	_, err := f.projector.ProjectBatch(ctx, []types.Log{created}, 1)
	require.NoError(t, err)

	result, err := f.projector.ProjectBatch(ctx, []types.Log{created}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)

	projects, err := f.store.ListProjects(ctx, readmodel.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestProjectBatch_VotingCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	other := common.HexToAddress("0x000000000000000000000000000000000000000D")

	logs := []types.Log{
		f.created(0, 10),
		f.cycle(0, 0),
		f.cycle(0, 1),
		f.voted(0, 1, funderB),
		f.voted(0, 1, funderB),
		f.voted(0, 1, other),
		f.released(0, 2, 1),
	}

	_, err := f.projector.ProjectBatch(ctx, logs, 3)
	require.NoError(t, err)

	cycles, err := f.store.ListVotingCycles(ctx, ownerA, 0, false)
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	require.Equal(t, uint64(0), cycles[0].VotesGathered)
	require.Equal(t, uint64(3), cycles[1].VotesGathered)
	require.False(t, cycles[0].Ended, "release for cycle 2 must not end other cycles")
	require.False(t, cycles[1].Ended)

	_, err = f.projector.ProjectBatch(ctx, []types.Log{f.released(0, 1, 1)}, 4)
	require.NoError(t, err)

	cycle, err := f.store.GetVotingCycle(ctx, ownerA, 0, 1)
	require.NoError(t, err)
	require.True(t, cycle.Ended)

	cycle, err = f.store.GetVotingCycle(ctx, ownerA, 0, 0)
	require.NoError(t, err)
	require.False(t, cycle.Ended)

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "2", project.Released.String())

	votes, err := f.store.ListVotes(ctx, ownerA, 0, 1)
	require.NoError(t, err)
	require.Len(t, votes, 3)
}

func TestProjectBatch_UnknownDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	logs := []types.Log{
		f.created(0, 10),
		f.logs.Unknown(),
		f.logs.Log("Initialized", uint64(1)),
		f.funded(0, 0, contracttest.Ether(3)),
	}

	result, err := f.projector.ProjectBatch(ctx, logs, 2)
	require.NoError(t, err)
	require.Equal(t, 2, result.Applied)
	require.Equal(t, 2, result.Unknown)

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "3", project.Funded.String())
}

func TestProjectBatch_MalformedLogsAreSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	truncated := f.funded(0, 0, contracttest.Ether(7))
	truncated.Data = truncated.Data[:32]

	overflowing := f.logs.Log(contract.EventProjectFunded,
		funderB, new(big.Int).Lsh(big.NewInt(1), 63), contracttest.Ether(5), ownerA, big.NewInt(0), big.NewInt(1700000001))

	logs := []types.Log{f.created(0, 10), truncated, overflowing, f.funded(1, 0, contracttest.Ether(2))}

	result, err := f.projector.ProjectBatch(ctx, logs, 4)
	require.NoError(t, err)
	require.Equal(t, 2, result.Applied)
	require.Equal(t, 2, result.Skipped)
	require.Equal(t, uint64(4), f.checkpointer.block(t))

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "2", project.Funded.String())

	investments, err := f.store.ListInvestments(ctx, ownerA, 0, readmodel.Page{})
	require.NoError(t, err)
	require.Len(t, investments, 1)
}

func TestProjectBatch_OutOfRangeTimestampDoesNotStall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	tooLate := f.logs.Log(contract.EventProjectCreated,
		ownerA, big.NewInt(0), contracttest.Ether(10), big.NewInt(2), new(big.Int).Lsh(big.NewInt(1), 63))

	result, err := f.projector.ProjectBatch(ctx, []types.Log{tooLate, f.created(1, 4)}, 3)
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, uint64(3), f.checkpointer.block(t))

	_, err = f.store.GetProject(ctx, ownerA, 0)
	require.ErrorIs(t, err, readmodel.ErrNotFound)

	project, err := f.store.GetProject(ctx, ownerA, 1)
	require.NoError(t, err)
	require.Equal(t, "4", project.Goal.String())
}

func TestProjectBatch_MissingTargetsAreLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	result, err := f.projector.ProjectBatch(ctx, []types.Log{
		f.funded(0, 9, contracttest.Ether(1)),
		f.voted(9, 0, funderB),
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 2, result.Applied)

	_, err = f.store.GetProject(ctx, ownerA, 9)
	require.ErrorIs(t, err, readmodel.ErrNotFound)

	investments, err := f.store.ListInvestments(ctx, ownerA, 9, readmodel.Page{})
	require.NoError(t, err)
	require.Len(t, investments, 1)
}

func TestProjectBatch_RollbackOnCheckpointFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.projector.ProjectBatch(ctx, []types.Log{f.created(0, 10)}, 1)
	require.NoError(t, err)

	boom := errors.New("disk full")
	f.checkpointer.fail = boom

	_, err = f.projector.ProjectBatch(ctx, []types.Log{f.funded(0, 0, contracttest.Ether(1))}, 2)
	require.ErrorIs(t, err, boom)

	f.checkpointer.fail = nil
	require.Equal(t, uint64(1), f.checkpointer.block(t))

	project, err := f.store.GetProject(ctx, ownerA, 0)
	require.NoError(t, err)
	require.Equal(t, "0", project.Funded.String())

	investments, err := f.store.ListInvestments(ctx, ownerA, 0, readmodel.Page{})
	require.NoError(t, err)
	require.Empty(t, investments)
}

func TestProjectBatch_EmptyBatchAdvancesCheckpoint(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.projector.ProjectBatch(context.Background(), nil, 100)
	require.NoError(t, err)
	require.Zero(t, result.Logs)
	require.Equal(t, uint64(100), f.checkpointer.block(t))
}
