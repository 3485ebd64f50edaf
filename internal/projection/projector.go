// Package projection applies contract events to the read model.
package projection

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/db"
	"github.com/fundify/indexer/internal/decoder"
	"github.com/fundify/indexer/internal/events"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/internal/metadata"
	"github.com/fundify/indexer/internal/metrics"
	"github.com/fundify/indexer/internal/readmodel"
	"github.com/fundify/indexer/pkg/config"
)

// Checkpointer persists the indexing checkpoint inside the batch transaction.
type Checkpointer interface {
	SaveCheckpoint(ctx context.Context, q db.Querier, block uint64, blockHash common.Hash) error
}

// BatchResult summarizes one projected batch.
type BatchResult struct {
	ToBlock    uint64
	Logs       int
	Applied    int
	Duplicates int
	Skipped    int
	Unknown    int
	Duration   time.Duration
}

// Projector applies decoded contract events to the read model, one transaction per batch.
type Projector struct {
	store       *readmodel.Store
	decoder     *decoder.Decoder
	metadata    *metadata.Source
	checkpoints Checkpointer
	deduplicate bool
	log         *logger.Logger
}

// New creates a projector. Deduplication follows cfg.DeduplicationEnabled.
func New(
	store *readmodel.Store,
	dec *decoder.Decoder,
	meta *metadata.Source,
	checkpoints Checkpointer,
	cfg config.ProjectionConfig,
	log *logger.Logger,
) *Projector {
	return &Projector{
		store:       store,
		decoder:     dec,
		metadata:    meta,
		checkpoints: checkpoints,
		deduplicate: cfg.DeduplicationEnabled(),
		log:         log.WithComponent(internalcommon.ComponentProjection),
	}
}

type outcome struct {
	event  string
	result string
}

// ProjectBatch applies logs in order and saves toBlock as the checkpoint, all in one
// transaction. Logs that fail to decode or parse are skipped. Any store error rolls the
// whole batch back, leaving the read model and checkpoint untouched.
func (p *Projector) ProjectBatch(ctx context.Context, logs []types.Log, toBlock uint64) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{ToBlock: toBlock, Logs: len(logs)}

	var outcomes []outcome

	err := p.store.InTx(ctx, func(tx *readmodel.Tx) error {
		outcomes = outcomes[:0]

		var toBlockHash common.Hash
		a := &applier{ctx: ctx, tx: tx, projector: p}

		for _, log := range logs {
			if log.BlockNumber == toBlock {
				toBlockHash = log.BlockHash
			}

			o, err := a.project(log)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, o)
		}

		return p.checkpoints.SaveCheckpoint(ctx, tx.SQL(), toBlock, toBlockHash)
	})
	if err != nil {
		metrics.ErrorInc(internalcommon.ComponentProjection, "error")
		return nil, err
	}

	for _, o := range outcomes {
		metrics.EventInc(o.event, o.result)

		switch o.result {
		case metrics.OutcomeApplied:
			result.Applied++
		case metrics.OutcomeDuplicate:
			result.Duplicates++
		case metrics.OutcomeUnknown:
			result.Unknown++
		default:
			result.Skipped++
		}
	}

	result.Duration = time.Since(start)
	metrics.BatchDurationLog(result.Duration)

	p.log.Debugf("projected batch: to_block=%d, logs=%d, applied=%d, duplicates=%d, skipped=%d, unknown=%d",
		toBlock, result.Logs, result.Applied, result.Duplicates, result.Skipped, result.Unknown)

	return result, nil
}

// applier implements events.Handler for a single transaction.
type applier struct {
	ctx       context.Context
	tx        *readmodel.Tx
	projector *Projector

	// skipped is set by a handler that decided not to mutate anything.
	skipped bool
}

var _ events.Handler = (*applier)(nil)

func (a *applier) project(log types.Log) (outcome, error) {
	p := a.projector
	pos := decoder.PositionOf(log)

	if log.Removed {
		p.log.Warnf("skipping removed log: block=%d, tx=%s, index=%d", pos.BlockNumber, pos.TxHash.Hex(), pos.LogIndex)
		return outcome{event: "removed", result: metrics.OutcomeSkipped}, nil
	}

	decoded, err := p.decoder.Decode(log)
	if err != nil {
		if errors.Is(err, decoder.ErrUnknownEvent) {
			p.log.Infof("unknown event: block=%d, tx=%s, index=%d", pos.BlockNumber, pos.TxHash.Hex(), pos.LogIndex)
			return outcome{event: "unknown", result: metrics.OutcomeUnknown}, nil
		}

		p.log.Warnf("failed to decode log: block=%d, tx=%s, index=%d: %v",
			pos.BlockNumber, pos.TxHash.Hex(), pos.LogIndex, err)
		return outcome{event: "unknown", result: metrics.OutcomeFailed}, nil
	}

	event, err := events.Parse(decoded)
	if err != nil {
		if errors.Is(err, events.ErrUnhandledEvent) {
			p.log.Infof("event %s has no projection: block=%d, tx=%s", decoded.Name, pos.BlockNumber, pos.TxHash.Hex())
			return outcome{event: decoded.Name, result: metrics.OutcomeUnknown}, nil
		}

		p.log.Warnf("failed to parse %s: block=%d, tx=%s, index=%d: %v",
			decoded.Name, pos.BlockNumber, pos.TxHash.Hex(), pos.LogIndex, err)
		return outcome{event: decoded.Name, result: metrics.OutcomeFailed}, nil
	}

	if p.deduplicate {
		seen, err := a.tx.IsLogProcessed(a.ctx, pos.TxHash, pos.LogIndex)
		if err != nil {
			return outcome{}, err
		}
		if seen {
			p.log.Debugf("already projected %s: tx=%s, index=%d", event.Name(), pos.TxHash.Hex(), pos.LogIndex)
			return outcome{event: event.Name(), result: metrics.OutcomeDuplicate}, nil
		}
	}

	a.skipped = false
	if err := event.Accept(a); err != nil {
		return outcome{}, err
	}

	if p.deduplicate {
		if err := a.tx.MarkLogProcessed(pos.TxHash, pos.LogIndex, pos.BlockNumber); err != nil {
			return outcome{}, err
		}
	}

	if a.skipped {
		return outcome{event: event.Name(), result: metrics.OutcomeSkipped}, nil
	}

	return outcome{event: event.Name(), result: metrics.OutcomeApplied}, nil
}
