package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// EthClient is the slice of the node's JSON-RPC surface the indexer reads from:
// contract logs and block headers by number or tag.
type EthClient interface {
	Close()

	// GetLogs runs eth_getLogs for the query.
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error)

	// GetLatestBlockHeader, GetSafeBlockHeader and GetFinalizedBlockHeader resolve the
	// header behind the corresponding block tag.
	GetLatestBlockHeader(ctx context.Context) (*types.Header, error)
	GetSafeBlockHeader(ctx context.Context) (*types.Header, error)
	GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error)
}
