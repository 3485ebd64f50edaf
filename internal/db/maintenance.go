package db

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/pkg/config"
	"github.com/go-co-op/gocron/v2"
)

// Maintenance coordinates periodic SQLite housekeeping with regular database writes.
type Maintenance interface {
	// Start schedules background maintenance if enabled.
	Start(ctx context.Context) error
	// Stop stops background maintenance and waits for a running pass to finish.
	Stop() error
	// AcquireOperationLock acquires a shared lock for a database write.
	// The returned function releases it.
	AcquireOperationLock() func()
	// RunMaintenance performs one maintenance pass.
	RunMaintenance(ctx context.Context) error
}

// NoOpMaintenance is used for server databases and when maintenance is not configured.
type NoOpMaintenance struct{}

func (m *NoOpMaintenance) Start(context.Context) error          { return nil }
func (m *NoOpMaintenance) Stop() error                          { return nil }
func (m *NoOpMaintenance) RunMaintenance(context.Context) error { return nil }
func (m *NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }

// MaintenanceCoordinator runs WAL checkpoints and VACUUM on a gocron schedule.
// Writers hold the read side of opLock; a maintenance pass holds the write side.
type MaintenanceCoordinator struct {
	db     *DB
	config config.MaintenanceConfig
	log    *logger.Logger

	opLock    sync.RWMutex
	scheduler gocron.Scheduler
}

// NewMaintenance returns a coordinator for SQLite databases with maintenance configured,
// and a no-op implementation otherwise.
func NewMaintenance(db *DB, cfg *config.MaintenanceConfig, log *logger.Logger) Maintenance {
	if cfg == nil || db.Driver() != config.DriverSQLite {
		return &NoOpMaintenance{}
	}

	return &MaintenanceCoordinator{
		db:     db,
		config: *cfg,
		log:    log,
	}
}

// Start schedules background maintenance if enabled.
func (m *MaintenanceCoordinator) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.log.Info("Background maintenance is disabled")
		return nil
	}

	if m.config.VacuumOnStartup {
		m.log.Info("Running startup maintenance")
		if err := m.RunMaintenance(ctx); err != nil {
			m.log.Warnf("Startup maintenance failed: %v", err)
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create maintenance scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(m.config.CheckInterval.Duration),
		gocron.NewTask(func() {
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("Periodic maintenance failed: %v", err)
			}
		}),
		gocron.WithName(common.ComponentMaintenance),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	scheduler.Start()
	m.scheduler = scheduler

	m.log.Infof("Background maintenance started - interval: %v, checkpoint mode: %s",
		m.config.CheckInterval.Duration, m.config.WALCheckpointMode)

	return nil
}

// Stop stops background maintenance and waits for a running pass to finish.
func (m *MaintenanceCoordinator) Stop() error {
	if m.scheduler == nil {
		return nil
	}

	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop maintenance scheduler: %w", err)
	}
	m.scheduler = nil
	m.log.Info("Background maintenance stopped")

	return nil
}

// RunMaintenance checkpoints the WAL and vacuums the database with exclusive access.
func (m *MaintenanceCoordinator) RunMaintenance(ctx context.Context) error {
	start := time.Now().UTC()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var maintenanceErr error

	if err := m.walCheckpoint(ctx); err != nil {
		maintenanceErr = fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, "VACUUM"); err != nil && maintenanceErr == nil {
		maintenanceErr = fmt.Errorf("VACUUM failed: %w", err)
	}

	MaintenanceDurationLog(time.Since(start))

	if size, err := DBTotalSize(m.db.Path()); err == nil {
		DBSizeLog(size)
	}

	if maintenanceErr != nil {
		MaintenanceErrorInc()
		return maintenanceErr
	}

	MaintenanceSuccessInc()
	m.log.Infof("Maintenance completed in %v", time.Since(start))

	return nil
}

func (m *MaintenanceCoordinator) walCheckpoint(ctx context.Context) error {
	var mode string
	if err := m.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if !strings.EqualFold(mode, "wal") {
		m.log.Debug("Database not in WAL mode, skipping WAL checkpoint")
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.config.WALCheckpointMode)
	if err := m.db.QueryRowContext(ctx, query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}

	WALCheckpointInc(strings.ToLower(m.config.WALCheckpointMode))

	if busy > 0 {
		m.log.Warnf("WAL checkpoint encountered %d busy pages", busy)
	}
	m.log.Debugf("WAL checkpoint complete - log_frames: %d, checkpointed: %d", logFrames, checkpointed)

	return nil
}

// AcquireOperationLock acquires a shared lock for a database write.
func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}
