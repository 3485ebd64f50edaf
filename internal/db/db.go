package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fundify/indexer/pkg/config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	meddler.DB
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// DB is a database handle bound to the SQL dialect of its driver.
// Queries are written with '?' placeholders and rebound for the driver.
type DB struct {
	*sql.DB

	driver  string
	meddler *meddler.Database
	path    string
}

// Open opens the read-model database described by cfg.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return NewSQLiteDBFromConfig(cfg)
	case config.DriverPostgres:
		return NewPostgresDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewSQLiteDB creates a new SQLite DB with default settings.
func NewSQLiteDB(dbPath string) (*DB, error) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath}
	cfg.ApplyDefaults()

	return NewSQLiteDBFromConfig(cfg)
}

// NewSQLiteDBFromConfig creates a new SQLite DB with the given configuration.
func NewSQLiteDBFromConfig(cfg config.DatabaseConfig) (*DB, error) {
	foreignKeys := "off"
	if cfg.EnableForeignKeys {
		foreignKeys = "on"
	}

	connStr := fmt.Sprintf(
		"file:%s?_txlock=immediate&_foreign_keys=%s&_journal_mode=%s&_busy_timeout=%d",
		cfg.Path,
		foreignKeys,
		cfg.JournalMode,
		cfg.BusyTimeout,
	)

	sqlDB, err := sql.Open(config.DriverSQLite, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)

	pragmas := []string{
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.Synchronous),
		fmt.Sprintf("PRAGMA cache_size = %d", cfg.CacheSize),
	}

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return &DB{
		DB:      sqlDB,
		driver:  config.DriverSQLite,
		meddler: meddler.SQLite,
		path:    cfg.Path,
	}, nil
}

// NewPostgresDB opens a PostgreSQL database and verifies the connection.
func NewPostgresDB(cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open(config.DriverPostgres, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		driver:  config.DriverPostgres,
		meddler: meddler.PostgreSQL,
	}, nil
}

// Driver returns the database/sql driver name, which is also the sql-migrate dialect.
func (d *DB) Driver() string {
	return d.driver
}

// Meddler returns the meddler dialect matching the driver.
func (d *DB) Meddler() *meddler.Database {
	return d.meddler
}

// Path returns the SQLite file path, empty for server databases.
func (d *DB) Path() string {
	return d.path
}

// Rebind rewrites '?' placeholders into the driver's placeholder style.
func (d *DB) Rebind(query string) string {
	return Rebind(d.driver, query)
}

// Rebind rewrites '?' placeholders into '$n' for postgres and leaves other drivers untouched.
// Placeholders inside single quoted literals are not rewritten.
func Rebind(driver, query string) string {
	if driver != config.DriverPostgres {
		return query
	}

	var (
		b       strings.Builder
		n       int
		literal bool
	)
	b.Grow(len(query) + 8) //nolint:mnd

	for _, r := range query {
		switch {
		case r == '\'':
			literal = !literal
			b.WriteRune(r)
		case r == '?' && !literal:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// RollbackTx rolls back tx, ignoring the error of an already finished transaction.
func RollbackTx(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}
