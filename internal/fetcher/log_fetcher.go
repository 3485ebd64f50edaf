// Package fetcher reads the contract's logs from the chain in bounded block ranges.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/logger"
	irpc "github.com/fundify/indexer/internal/rpc"
	itypes "github.com/fundify/indexer/internal/types"
	"github.com/fundify/indexer/pkg/fetcher"
	"github.com/fundify/indexer/pkg/rpc"
)

var _ fetcher.LogFetcher = (*LogFetcher)(nil)

// ErrInvalidRange is returned when fromBlock is after toBlock.
var ErrInvalidRange = errors.New("invalid block range")

// LogFetcherConfig contains configuration for the LogFetcher.
type LogFetcherConfig struct {
	// Address is the contract whose logs are fetched
	Address ethcommon.Address

	// Finality specifies the head used for polling
	Finality itypes.BlockFinality

	// FinalizedLag is blocks behind head (only for "latest" mode)
	FinalizedLag uint64
}

// LogFetcher fetches contract logs and the chain head over RPC.
type LogFetcher struct {
	cfg LogFetcherConfig
	rpc rpc.EthClient
	log *logger.Logger
}

// NewLogFetcher creates a new LogFetcher instance.
func NewLogFetcher(cfg LogFetcherConfig, log *logger.Logger, rpcClient rpc.EthClient) *LogFetcher {
	return &LogFetcher{
		cfg: cfg,
		rpc: rpcClient,
		log: log,
	}
}

// Head returns the header the configured finality mode considers head.
func (lf *LogFetcher) Head(ctx context.Context) (*types.Header, error) {
	header, err := lf.cfg.Finality.Head(ctx, lf.rpc, lf.cfg.FinalizedLag)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s head: %w", lf.cfg.Finality, err)
	}

	return header, nil
}

// FetchRange fetches the contract logs in [fromBlock, toBlock].
func (lf *LogFetcher) FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*fetcher.FetchResult, error) {
	if fromBlock > toBlock {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, fromBlock, toBlock)
	}

	logs, newFrom, newTo, err := lf.fetchLogsWithRetry(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	lf.log.Debugf("fetched range from %d to %d with %d logs", newFrom, newTo, len(logs))

	return &fetcher.FetchResult{
		Logs:      logs,
		FromBlock: newFrom,
		ToBlock:   newTo,
	}, nil
}

// fetchLogsWithRetry narrows the range while the node reports too many results,
// using the node's suggested range when it gives one and halving otherwise.
func (lf *LogFetcher) fetchLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, uint64, uint64, error) {
	for {
		logs, err := lf.rpc.GetLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(fromBlock),
			ToBlock:   new(big.Int).SetUint64(toBlock),
			Addresses: []ethcommon.Address{lf.cfg.Address},
		})
		if err == nil {
			return logs, fromBlock, toBlock, nil
		}

		ok, errData := irpc.IsTooManyResultsError(err)
		if !ok {
			return nil, 0, 0, err
		}

		RangeSplitInc()

		if suggestedFrom, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok &&
			suggestedFrom == fromBlock && suggestedTo >= fromBlock && suggestedTo < toBlock {
			lf.log.Infof("too many logs, retrying with suggested block range from %d to %d (original range %d to %d)",
				suggestedFrom, suggestedTo, fromBlock, toBlock)
			toBlock = suggestedTo
			continue
		}

		if fromBlock == toBlock {
			return nil, 0, 0, fmt.Errorf("cannot split range further, single block %d has too many logs: %w",
				fromBlock, err)
		}

		const splitBy = 2
		mid := fromBlock + (toBlock-fromBlock)/splitBy

		lf.log.Infof("too many logs, retrying with block range from %d to %d (original range %d to %d)",
			fromBlock, mid, fromBlock, toBlock)
		toBlock = mid
	}
}
