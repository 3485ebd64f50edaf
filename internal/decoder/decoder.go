// Package decoder turns raw contract logs into named, ordered argument lists.
package decoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrUnknownEvent is returned for logs whose signature is not part of the ABI.
	ErrUnknownEvent = errors.New("unknown event signature")

	// ErrMalformedLog is returned when topics or data do not match the event layout.
	ErrMalformedLog = errors.New("malformed log")
)

// Position locates a log entry on chain.
type Position struct {
	Address     common.Address `json:"address"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   common.Hash    `json:"block_hash"`
	TxHash      common.Hash    `json:"tx_hash"`
	LogIndex    uint           `json:"log_index"`
}

// PositionOf extracts the position of a log.
func PositionOf(log types.Log) Position {
	return Position{
		Address:     log.Address,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}
}

// DecodedEvent is a log decoded against the contract ABI.
// Args follow the declaration order of the event inputs, with indexed and
// non-indexed inputs merged back together. Values are common.Address for
// address, *big.Int for uint256 and the go-ethereum ABI types otherwise.
type DecodedEvent struct {
	Name     string
	ArgNames []string
	Args     []any
	Position Position
}

// Arg returns the argument with the given name.
func (e *DecodedEvent) Arg(name string) (any, bool) {
	for i, n := range e.ArgNames {
		if n == name {
			return e.Args[i], true
		}
	}

	return nil, false
}

// Decoder decodes logs of a single contract.
type Decoder struct {
	abi *abi.ABI
}

// New creates a decoder for the given ABI.
func New(contractABI *abi.ABI) *Decoder {
	return &Decoder{abi: contractABI}
}

// Decode decodes a single log. It has no side effects.
func (d *Decoder) Decode(log types.Log) (*DecodedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", ErrUnknownEvent)
	}

	event, err := d.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	indexed, nonIndexed := splitIndexed(event.Inputs)
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: %s expects %d indexed topics, got %d",
			ErrMalformedLog, event.Name, len(indexed), len(log.Topics)-1)
	}

	values := make(map[string]any, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %s topics: %w", ErrMalformedLog, event.Name, err)
	}
	if err := nonIndexed.UnpackIntoMap(values, log.Data); err != nil {
		return nil, fmt.Errorf("%w: %s data: %w", ErrMalformedLog, event.Name, err)
	}

	decoded := &DecodedEvent{
		Name:     event.Name,
		ArgNames: make([]string, len(event.Inputs)),
		Args:     make([]any, len(event.Inputs)),
		Position: PositionOf(log),
	}
	for i, input := range event.Inputs {
		decoded.ArgNames[i] = input.Name
		decoded.Args[i] = values[input.Name]
	}

	return decoded, nil
}

func splitIndexed(args abi.Arguments) (indexed abi.Arguments, nonIndexed abi.Arguments) {
	for _, a := range args {
		if a.Indexed {
			indexed = append(indexed, a)
		} else {
			nonIndexed = append(nonIndexed, a)
		}
	}

	return indexed, nonIndexed
}
