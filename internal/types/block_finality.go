// Package types holds small shared value types.
package types

import (
	"context"
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/pkg/rpc"
)

// BlockFinality selects which block the poll loop treats as head.
type BlockFinality string

const (
	// FinalityFinalized uses the finalized block tag (highest level of finality)
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe uses the safe block tag (medium level of finality)
	FinalitySafe BlockFinality = "safe"

	// FinalityLatest uses the latest block tag, optionally minus a lag
	FinalityLatest BlockFinality = "latest"
)

// String returns the string representation of BlockFinality.
func (f BlockFinality) String() string {
	return string(f)
}

// IsValid checks if the BlockFinality value is valid.
func (f BlockFinality) IsValid() bool {
	switch f {
	case FinalityFinalized, FinalitySafe, FinalityLatest:
		return true
	default:
		return false
	}
}

// ParseBlockFinality parses a string into a BlockFinality. An empty string means latest.
func ParseBlockFinality(s string) (BlockFinality, error) {
	if s == "" {
		return FinalityLatest, nil
	}

	f := BlockFinality(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality: %s (must be one of: finalized, safe, latest)", s)
	}

	return f, nil
}

// Head returns the header the finality mode considers head. For latest, lag blocks are
// subtracted; a chain shorter than lag yields the genesis header.
func (f BlockFinality) Head(ctx context.Context, client rpc.EthClient, lag uint64) (*ethtypes.Header, error) {
	switch f {
	case FinalityFinalized:
		return client.GetFinalizedBlockHeader(ctx)
	case FinalitySafe:
		return client.GetSafeBlockHeader(ctx)
	case FinalityLatest:
		header, err := client.GetLatestBlockHeader(ctx)
		if err != nil || lag == 0 {
			return header, err
		}

		number := header.Number.Uint64()
		if number < lag {
			return client.GetBlockHeader(ctx, 0)
		}

		return client.GetBlockHeader(ctx, number-lag)
	default:
		return nil, fmt.Errorf("invalid finality mode: %s", f)
	}
}
