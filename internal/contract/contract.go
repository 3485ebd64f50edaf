// Package contract holds the interface description of the Fundify crowdfunding contract.
package contract

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event names emitted by the contract.
const (
	EventProjectCreated       = "ProjectCreated"
	EventProjectFunded        = "ProjectFunded"
	EventProjectFundsReleased = "ProjectFundsReleased"
	EventVotingCycleInitiated = "VotingCycleInitiated"
	EventVoted                = "Voted"
)

//go:embed abi/Fundify.json
var fundifyABI []byte

// Load parses the contract ABI. An empty path selects the embedded ABI.
func Load(path string) (*abi.ABI, error) {
	data := fundifyABI
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read ABI file: %w", err)
		}
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &parsed, nil
}

// MustLoad returns the embedded ABI and panics if it cannot be parsed.
func MustLoad() *abi.ABI {
	parsed, err := Load("")
	if err != nil {
		panic(err)
	}

	return parsed
}
