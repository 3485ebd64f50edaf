package db

import (
	"fmt"
	"strings"

	"github.com/fundify/indexer/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator     = "-- +migrate Up"
	downMarker          = "-- +migrate Down"
	NoLimitMigrations   = 0 // indicate that there is no limit on the number of migrations to run
	migrationDirections = 2
)

// Migration is one embedded SQL file holding a Down section followed by an Up section.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations applies all pending up migrations.
func RunMigrations(log *logger.Logger, db *DB, migrations []Migration) error {
	return RunMigrationsExtended(log, db, migrations, migrate.Up, NoLimitMigrations)
}

// RunMigrationsExtended runs migrations in the given direction.
// maxMigrations: Will apply at most `max` migrations. Pass 0 for no limit.
func RunMigrationsExtended(
	log *logger.Logger,
	db *DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int,
) error {
	source, err := buildMigrationSource(migrations)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(source.Migrations))
	for _, m := range source.Migrations {
		ids = append(ids, m.Id)
	}
	list := strings.Join(ids, ", ")

	log.Debugf("running migrations on %s: (max %d/%d) migrations: %s",
		db.Driver(), maxMigrations, len(source.Migrations), list)

	n, err := migrate.ExecMax(db.DB, db.Driver(), source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migration (max %d/%d) migrations: %s. Err: %w",
			maxMigrations, len(source.Migrations), list, err)
	}

	log.Infof("successfully ran %d migrations from migrations: %s", n, list)

	return nil
}

func buildMigrationSource(migrations []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(migrations))}

	for _, m := range migrations {
		parts := strings.Split(m.SQL, UpDownSeparator)
		if len(parts) < migrationDirections {
			return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, UpDownSeparator)
		}

		downSQL := parts[0]
		if idx := strings.Index(downSQL, downMarker); idx != -1 {
			downSQL = downSQL[idx+len(downMarker):]
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(parts[1])},
			Down: []string{strings.TrimSpace(downSQL)},
		})
	}

	return source, nil
}
