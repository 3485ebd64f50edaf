// Package downloader runs the poll loop: it reads the chain head, fetches the contract's
// logs chunk by chunk and hands every chunk to the projector together with its checkpoint.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/internal/metrics"
	"github.com/fundify/indexer/internal/projection"
	"github.com/fundify/indexer/pkg/config"
	pkgdownloader "github.com/fundify/indexer/pkg/downloader"
	"github.com/fundify/indexer/pkg/fetcher"
	"github.com/go-co-op/gocron/v2"
)

var _ pkgdownloader.Downloader = (*Downloader)(nil)

// BatchProjector applies a chunk of logs and its checkpoint atomically.
type BatchProjector interface {
	ProjectBatch(ctx context.Context, logs []types.Log, toBlock uint64) (*projection.BatchResult, error)
}

// Downloader moves the indexing cursor from the checkpoint towards the chain head.
type Downloader struct {
	cfg         config.DownloaderConfig
	startBlock  uint64
	fetcher     fetcher.LogFetcher
	projector   BatchProjector
	syncManager pkgdownloader.SyncManager
	log         *logger.Logger

	cursor atomic.Uint64
	head   atomic.Uint64
}

// New creates a new Downloader. startBlock is the first block that may hold contract logs.
func New(
	cfg config.DownloaderConfig,
	startBlock uint64,
	logFetcher fetcher.LogFetcher,
	projector BatchProjector,
	syncManager pkgdownloader.SyncManager,
	log *logger.Logger,
) (*Downloader, error) {
	if logFetcher == nil {
		return nil, errors.New("log fetcher is required")
	}
	if projector == nil {
		return nil, errors.New("projector is required")
	}
	if syncManager == nil {
		return nil, errors.New("sync manager is required")
	}
	if cfg.ChunkSize == 0 {
		return nil, errors.New("chunk size must be greater than 0")
	}

	return &Downloader{
		cfg:         cfg,
		startBlock:  startBlock,
		fetcher:     logFetcher,
		projector:   projector,
		syncManager: syncManager,
		log:         log.WithComponent(common.ComponentDownloader),
	}, nil
}

// Cursor returns the last block committed by this process.
func (d *Downloader) Cursor() uint64 {
	return d.cursor.Load()
}

// Head returns the last head block seen by the poll loop.
func (d *Downloader) Head() uint64 {
	return d.head.Load()
}

// Step indexes (cursor, head] in chunks of at most ChunkSize blocks. Every chunk is
// projected and checkpointed in one transaction, so the returned cursor always equals
// the durable checkpoint.
func (d *Downloader) Step(ctx context.Context, cursor uint64) (uint64, error) {
	header, err := d.fetcher.Head(ctx)
	if err != nil {
		return cursor, err
	}

	head := header.Number.Uint64()
	d.head.Store(head)
	metrics.ChainHeadSet(head)

	if head <= cursor {
		d.log.Debugf("waiting for new blocks, cursor: %d, head: %d", cursor, head)
		return cursor, nil
	}

	for cursor < head {
		if err := ctx.Err(); err != nil {
			return cursor, err
		}

		from := cursor + 1
		to := min(cursor+d.cfg.ChunkSize, head)

		start := time.Now()

		result, err := d.fetcher.FetchRange(ctx, from, to)
		if err != nil {
			return cursor, fmt.Errorf("failed to fetch logs in [%d, %d]: %w", from, to, err)
		}
		metrics.LogsFetchedInc(len(result.Logs))

		batch, err := d.projector.ProjectBatch(ctx, result.Logs, result.ToBlock)
		if err != nil {
			return cursor, fmt.Errorf("failed to project blocks [%d, %d]: %w", from, result.ToBlock, err)
		}

		blocks := result.ToBlock - cursor
		cursor = result.ToBlock

		metrics.LastIndexedBlockSet(cursor)
		metrics.BlocksProcessedInc(blocks)
		if elapsed := time.Since(start).Seconds(); elapsed > 0 {
			metrics.IndexingRateLog(float64(blocks) / elapsed)
		}

		d.log.Infof("indexed blocks %d to %d: logs=%d, applied=%d, duplicates=%d, skipped=%d, unknown=%d",
			from, cursor, batch.Logs, batch.Applied, batch.Duplicates, batch.Skipped, batch.Unknown)
	}

	return cursor, nil
}

// InitialCursor returns the checkpoint, or the block before the start block when none was saved.
func (d *Downloader) InitialCursor(ctx context.Context) (uint64, error) {
	state, err := d.syncManager.Initialize(ctx)
	if err != nil {
		return 0, err
	}

	if state.IsFresh() {
		cursor := max(d.startBlock, 1) - 1
		d.log.Infof("starting fresh download from block %d", cursor+1)
		return cursor, nil
	}

	d.log.Infof("resuming download after block %d", state.LastIndexedBlock)

	return state.LastIndexedBlock, nil
}

// Run polls every PollInterval until ctx is cancelled. At most one Step is in flight;
// a tick that fires while the previous one still runs is rescheduled.
func (d *Downloader) Run(ctx context.Context) error {
	cursor, err := d.InitialCursor(ctx)
	if err != nil {
		return err
	}
	d.cursor.Store(cursor)
	metrics.LastIndexedBlockSet(cursor)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create poll scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(d.cfg.PollInterval.Duration),
		gocron.NewTask(func() { d.tick(ctx) }),
		gocron.WithName(common.ComponentDownloader),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	d.log.Infof("poll loop started - interval: %v, chunk size: %d, finality: %s",
		d.cfg.PollInterval.Duration, d.cfg.ChunkSize, d.cfg.Finality)

	scheduler.Start()
	<-ctx.Done()

	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop poll scheduler: %w", err)
	}

	d.log.Infof("poll loop stopped at block %d", d.cursor.Load())

	return nil
}

func (d *Downloader) tick(ctx context.Context) {
	cursor, err := d.Step(ctx, d.cursor.Load())
	d.cursor.Store(cursor)

	if err != nil {
		if ctx.Err() != nil {
			return
		}

		metrics.ErrorInc(common.ComponentDownloader, "error")
		metrics.ComponentHealthSet(common.ComponentDownloader, false)
		d.log.Errorf("poll step failed at block %d, retrying next tick: %v", cursor, err)

		return
	}

	metrics.ComponentHealthSet(common.ComponentDownloader, true)
}
