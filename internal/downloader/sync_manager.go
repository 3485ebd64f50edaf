package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/db"
	"github.com/fundify/indexer/internal/logger"
	pkgdownloader "github.com/fundify/indexer/pkg/downloader"
)

const syncStateTable = "sync_state"

// ErrContractMismatch is returned when the checkpoint was written for another contract.
var ErrContractMismatch = errors.New("checkpoint belongs to a different contract")

var _ pkgdownloader.SyncManager = (*SyncManager)(nil)

// SyncState is a type alias for the public SyncState type.
type SyncState = pkgdownloader.SyncState

// SyncManager manages the durable checkpoint stored in the sync_state row.
type SyncManager struct {
	db                     *db.DB
	contract               common.Address
	log                    *logger.Logger
	maintenanceCoordinator db.Maintenance
}

// NewSyncManager creates a new SyncManager for the given contract.
func NewSyncManager(database *db.DB, contract common.Address, log *logger.Logger,
	maintenanceCoordinator db.Maintenance) *SyncManager {
	return &SyncManager{
		db:                     database,
		contract:               contract,
		log:                    log.WithComponent(internalcommon.ComponentSyncManager),
		maintenanceCoordinator: maintenanceCoordinator,
	}
}

func (sm *SyncManager) lock() func() {
	if sm.maintenanceCoordinator == nil {
		return func() {}
	}

	return sm.maintenanceCoordinator.AcquireOperationLock()
}

// Initialize binds an unbound checkpoint to the contract and rejects a foreign one.
func (sm *SyncManager) Initialize(ctx context.Context) (*SyncState, error) {
	state, err := sm.GetState(ctx)
	if err != nil {
		return nil, err
	}

	switch state.ContractAddress {
	case sm.contract:
	case common.Address{}:
		unlock := sm.lock()
		defer unlock()

		state.ContractAddress = sm.contract
		if err := sm.db.Meddler().Update(sm.db, syncStateTable, state); err != nil {
			return nil, fmt.Errorf("failed to bind sync state to contract: %w", err)
		}
		sm.log.Infof("sync state bound to contract %s", sm.contract.Hex())
	default:
		return nil, fmt.Errorf("%w: checkpoint is for %s, configured contract is %s",
			ErrContractMismatch, state.ContractAddress.Hex(), sm.contract.Hex())
	}

	return state, nil
}

// GetState returns the current synchronization state.
func (sm *SyncManager) GetState(_ context.Context) (*SyncState, error) {
	unlock := sm.lock()
	defer unlock()

	var state SyncState
	if err := sm.db.Meddler().QueryRow(sm.db, &state, `SELECT * FROM sync_state WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	sm.log.Debugf("retrieved sync state: last_block=%d, last_block_hash=%s",
		state.LastIndexedBlock,
		state.LastIndexedBlockHash.Hex(),
	)

	return &state, nil
}

// SaveCheckpoint saves the checkpoint through q. The caller holds the operation lock
// for the duration of its transaction.
func (sm *SyncManager) SaveCheckpoint(_ context.Context, q db.Querier, block uint64, blockHash common.Hash) error {
	state := SyncState{
		ID:                   1,
		ContractAddress:      sm.contract,
		LastIndexedBlock:     block,
		LastIndexedBlockHash: blockHash,
		LastIndexedTimestamp: time.Now().Unix(),
	}

	if err := sm.db.Meddler().Update(q, syncStateTable, &state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	sm.log.Debugf("saved checkpoint: block=%d, block_hash=%s", block, blockHash.Hex())

	return nil
}

// Reset moves the checkpoint to the given block.
// The read model is not touched, so reindexing relies on log deduplication.
func (sm *SyncManager) Reset(_ context.Context, block uint64) error {
	unlock := sm.lock()
	defer unlock()

	state := SyncState{
		ID:                   1,
		ContractAddress:      sm.contract,
		LastIndexedBlock:     block,
		LastIndexedTimestamp: time.Now().Unix(),
	}

	if err := sm.db.Meddler().Update(sm.db, syncStateTable, &state); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}

	sm.log.Warnf("sync state reset: block=%d", block)

	return nil
}
