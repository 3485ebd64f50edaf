// Package events defines the domain events emitted by the crowdfunding contract
// and the parsers that build them from decoded logs.
package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/contract"
	"github.com/fundify/indexer/internal/decoder"
	"github.com/shopspring/decimal"
)

// Event is one immutable domain event. The unexported isEvent method keeps the set of
// implementations inside this package; each dispatches to exactly one Handler method.
type Event interface {
	Name() string
	Position() decoder.Position
	Accept(h Handler) error

	isEvent()
}

// Handler receives events through Event.Accept. Adding an event kind adds a
// method here, which every handler must then implement.
type Handler interface {
	OnProjectCreated(e *ProjectCreated) error
	OnProjectFunded(e *ProjectFunded) error
	OnProjectFundsReleased(e *ProjectFundsReleased) error
	OnVotingCycleInitiated(e *VotingCycleInitiated) error
	OnVoted(e *Voted) error
}

type located struct {
	pos decoder.Position
}

func (l located) Position() decoder.Position { return l.pos }

func (located) isEvent() {}

// ProjectCreated announces a new project. Goal is in whole ether units.
type ProjectCreated struct {
	located

	Owner      common.Address
	Index      uint64
	Goal       decimal.Decimal
	Milestones uint64
	Timestamp  uint64
}

func (e *ProjectCreated) Name() string { return contract.EventProjectCreated }
func (e *ProjectCreated) Accept(h Handler) error { return h.OnProjectCreated(e) }

// ProjectFunded records one investment into a project.
type ProjectFunded struct {
	located

	Funder          common.Address
	InvestmentIndex uint64
	Amount          decimal.Decimal
	ProjectOwner    common.Address
	ProjectIndex    uint64
	Timestamp       uint64
}

func (e *ProjectFunded) Name() string { return contract.EventProjectFunded }
func (e *ProjectFunded) Accept(h Handler) error { return h.OnProjectFunded(e) }

// ProjectFundsReleased records a payout that closes a voting cycle.
type ProjectFundsReleased struct {
	located

	Owner     common.Address
	Index     uint64
	Amount    decimal.Decimal
	To        common.Address
	Cycle     uint64
	Timestamp uint64
}

func (e *ProjectFundsReleased) Name() string { return contract.EventProjectFundsReleased }
func (e *ProjectFundsReleased) Accept(h Handler) error { return h.OnProjectFundsReleased(e) }

// VotingCycleInitiated opens a vote on releasing Amount to DepositWallet.
type VotingCycleInitiated struct {
	located

	ProjectOwner   common.Address
	ProjectIndex   uint64
	Amount         decimal.Decimal
	DepositWallet  common.Address
	VotingCycle    uint64
	VotingDeadline uint64
	VotesNeeded    uint64
}

func (e *VotingCycleInitiated) Name() string { return contract.EventVotingCycleInitiated }
func (e *VotingCycleInitiated) Accept(h Handler) error { return h.OnVotingCycleInitiated(e) }

// Voted records a single vote in a voting cycle.
type Voted struct {
	located

	ProjectOwner common.Address
	ProjectIndex uint64
	VoteBy       common.Address
	VotingCycle  uint64
}

func (e *Voted) Name() string { return contract.EventVoted }
func (e *Voted) Accept(h Handler) error { return h.OnVoted(e) }

var (
	_ Event = (*ProjectCreated)(nil)
	_ Event = (*ProjectFunded)(nil)
	_ Event = (*ProjectFundsReleased)(nil)
	_ Event = (*VotingCycleInitiated)(nil)
	_ Event = (*Voted)(nil)
)
