package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/pkg/config"
	"github.com/russross/meddler"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, journal string) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db"), JournalMode: journal}
	cfg.ApplyDefaults()

	database, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "sqlite untouched",
			driver: config.DriverSQLite,
			query:  "SELECT * FROM votes WHERE voter = ? AND voting_cycle = ?",
			want:   "SELECT * FROM votes WHERE voter = ? AND voting_cycle = ?",
		},
		{
			name:   "postgres numbered",
			driver: config.DriverPostgres,
			query:  "UPDATE projects SET funded = ?, updated_at = ? WHERE owner = ? AND project_index = ?",
			want:   "UPDATE projects SET funded = $1, updated_at = $2 WHERE owner = $3 AND project_index = $4",
		},
		{
			name:   "postgres skips literals",
			driver: config.DriverPostgres,
			query:  "SELECT '?' AS q, id FROM projects WHERE category = ?",
			want:   "SELECT '?' AS q, id FROM projects WHERE category = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Rebind(tt.driver, tt.query))
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	database := newTestDB(t, "WAL")

	require.Equal(t, config.DriverSQLite, database.Driver())
	require.Same(t, meddler.SQLite, database.Meddler())
	require.NotEmpty(t, database.Path())

	var mode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mongodb"})
	require.ErrorContains(t, err, "unsupported database driver")
}

type addressRow struct {
	Owner    common.Address  `meddler:"owner,address"`
	Referrer *common.Address `meddler:"referrer,address"`
	TxHash   common.Hash     `meddler:"tx_hash,hash"`
}

func TestMeddlers_RoundTrip(t *testing.T) {
	database := newTestDB(t, "WAL")

	_, err := database.Exec(`CREATE TABLE address_rows (owner TEXT NOT NULL, referrer TEXT, tx_hash TEXT NOT NULL)`)
	require.NoError(t, err)

	referrer := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	rows := []*addressRow{
		{
			Owner:    common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			Referrer: &referrer,
			TxHash:   common.HexToHash("0x01"),
		},
		{
			Owner:  common.HexToAddress("0x00000000000000000000000000000000000000cc"),
			TxHash: common.HexToHash("0x02"),
		},
	}
	for _, row := range rows {
		require.NoError(t, database.Meddler().Insert(database, "address_rows", row))
	}

	var loaded []*addressRow
	require.NoError(t, database.Meddler().QueryAll(database, &loaded, "SELECT * FROM address_rows ORDER BY tx_hash"))
	require.Equal(t, rows, loaded)
}

func TestRunMigrations(t *testing.T) {
	database := newTestDB(t, "WAL")
	log := logger.NewNopLogger()

	migrations := []Migration{
		{
			ID: "001_test.sql",
			SQL: `-- +migrate Down
DROP TABLE IF EXISTS sample;

-- +migrate Up
CREATE TABLE sample (id TEXT PRIMARY KEY);`,
		},
	}

	require.NoError(t, RunMigrations(log, database, migrations))
	// applied migrations are tracked, so a second run is a no-op
	require.NoError(t, RunMigrations(log, database, migrations))

	_, err := database.Exec("INSERT INTO sample (id) VALUES ('a')")
	require.NoError(t, err)

	require.NoError(t, RunMigrationsExtended(log, database, migrations, migrate.Down, NoLimitMigrations))
	_, err = database.Exec("INSERT INTO sample (id) VALUES ('b')")
	require.Error(t, err)
}

func TestRunMigrations_MissingSeparator(t *testing.T) {
	database := newTestDB(t, "WAL")

	err := RunMigrations(logger.NewNopLogger(), database, []Migration{{ID: "bad.sql", SQL: "CREATE TABLE x (id TEXT);"}})
	require.ErrorContains(t, err, "missing '-- +migrate Up' separator")
}

func TestRollbackTx(t *testing.T) {
	database := newTestDB(t, "WAL")

	tx, err := database.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// rolling back a committed transaction is not an error
	require.NoError(t, RollbackTx(tx))
}

func TestDBTotalSize(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.db")

	size, err := DBTotalSize(mainPath)
	require.NoError(t, err)
	require.Zero(t, size)

	require.NoError(t, os.WriteFile(mainPath, []byte("main-db"), 0o600))
	require.NoError(t, os.WriteFile(mainPath+"-wal", []byte("wal-content"), 0o600))

	size, err = DBTotalSize(mainPath)
	require.NoError(t, err)
	require.Equal(t, int64(len("main-db")+len("wal-content")), size)
}
