package fetcher

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
)

// LogFetcher reads contract logs and the chain head.
type LogFetcher interface {
	// Head returns the block the indexer may index up to, according to the finality mode.
	Head(ctx context.Context) (*types.Header, error)

	// FetchRange fetches the contract logs in [fromBlock, toBlock], ordered by block
	// number and log index. The range may be narrowed when the node refuses it;
	// the result's ToBlock tells how far the fetch actually went.
	FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*FetchResult, error)
}

// FetchResult contains the results of a log fetch operation.
type FetchResult struct {
	Logs      []types.Log
	FromBlock uint64
	ToBlock   uint64
}
