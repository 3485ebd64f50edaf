package migrations

import (
	_ "embed"

	"github.com/fundify/indexer/internal/db"
	"github.com/fundify/indexer/internal/logger"
)

//go:embed 001_read_model.sql
var mig001 string

//go:embed 002_indexer_state.sql
var mig002 string

// All returns the read-model migrations in application order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_read_model.sql", SQL: mig001},
		{ID: "002_indexer_state.sql", SQL: mig002},
	}
}

// RunMigrations brings the read-model schema up to date.
func RunMigrations(log *logger.Logger, database *db.DB) error {
	return db.RunMigrations(log, database, All())
}
