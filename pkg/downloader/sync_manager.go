package downloader

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/db"
)

// SyncManager owns the durable indexing checkpoint.
type SyncManager interface {
	// Initialize binds the checkpoint to the configured contract and returns the state.
	// It fails when the checkpoint belongs to a different contract.
	Initialize(ctx context.Context) (*SyncState, error)

	// GetState returns the current synchronization state.
	GetState(ctx context.Context) (*SyncState, error)

	// SaveCheckpoint records block as fully indexed. It runs on q, so a transaction
	// commits the checkpoint together with the read-model writes of the same chunk.
	SaveCheckpoint(ctx context.Context, q db.Querier, block uint64, blockHash common.Hash) error

	// Reset moves the checkpoint back to the given block for reindexing.
	Reset(ctx context.Context, block uint64) error
}

// SyncState represents the current synchronization state.
// Uses meddler tags for automatic struct-to-db mapping.
type SyncState struct {
	ID                   int            `meddler:"id,pk" json:"-"`
	ContractAddress      common.Address `meddler:"contract_address,address" json:"contract_address"`
	LastIndexedBlock     uint64         `meddler:"last_indexed_block" json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash    `meddler:"last_indexed_block_hash,hash" json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64          `meddler:"last_indexed_timestamp" json:"last_indexed_timestamp"`
}

// IsFresh reports whether no checkpoint was ever saved.
func (s *SyncState) IsFresh() bool {
	return s.LastIndexedTimestamp == 0
}
