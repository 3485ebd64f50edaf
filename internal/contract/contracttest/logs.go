// Package contracttest builds synthetic contract logs for tests.
package contracttest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/contract"
	"github.com/stretchr/testify/require"
)

// ContractAddress is the address stamped on every generated log.
var ContractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// Ether converts a whole ether amount to wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)) //nolint:mnd
}

// Builder packs event arguments into logs with increasing positions.
type Builder struct {
	t   *testing.T
	abi *abi.ABI

	Block    uint64
	logIndex uint
}

// NewBuilder returns a builder using the embedded contract ABI, starting at block 1.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()

	parsed, err := contract.Load("")
	require.NoError(t, err)

	return &Builder{t: t, abi: parsed, Block: 1}
}

// Log packs args for the named event in declaration order.
func (b *Builder) Log(name string, args ...any) types.Log {
	b.t.Helper()

	event, ok := b.abi.Events[name]
	require.True(b.t, ok, "unknown event %s", name)
	require.Len(b.t, args, len(event.Inputs), "argument count for %s", name)

	var (
		topics       = []common.Hash{event.ID}
		dataArgs     abi.Arguments
		dataValues   []any
		topicQueries [][]any
	)
	for i, input := range event.Inputs {
		if input.Indexed {
			topicQueries = append(topicQueries, []any{args[i]})
			continue
		}
		dataArgs = append(dataArgs, input)
		dataValues = append(dataValues, args[i])
	}

	if len(topicQueries) > 0 {
		indexed, err := abi.MakeTopics(topicQueries...)
		require.NoError(b.t, err)
		for _, topic := range indexed {
			topics = append(topics, topic[0])
		}
	}

	data, err := dataArgs.Pack(dataValues...)
	require.NoError(b.t, err)

	log := types.Log{
		Address:     ContractAddress,
		Topics:      topics,
		Data:        data,
		BlockNumber: b.Block,
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(b.Block)),
		TxHash:      common.BigToHash(new(big.Int).SetUint64(b.Block*1000 + uint64(b.logIndex))), //nolint:mnd
		Index:       b.logIndex,
	}
	b.logIndex++

	return log
}

// NextBlock advances to the next block and resets the log index.
func (b *Builder) NextBlock() {
	b.Block++
	b.logIndex = 0
}

// Unknown returns a log from the contract with a signature outside the ABI.
func (b *Builder) Unknown() types.Log {
	log := types.Log{
		Address:     ContractAddress,
		Topics:      []common.Hash{common.HexToHash("0xdeadbeef")},
		BlockNumber: b.Block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(b.Block*1000 + uint64(b.logIndex))), //nolint:mnd
		Index:       b.logIndex,
	}
	b.logIndex++

	return log
}
