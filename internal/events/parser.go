package events

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/contract"
	"github.com/fundify/indexer/internal/decoder"
	"github.com/shopspring/decimal"
)

var (
	// ErrNilEvent is returned when there is nothing to parse.
	ErrNilEvent = errors.New("nil decoded event")

	// ErrMalformedEvent is returned when arguments do not match the event layout.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrUnhandledEvent is returned for ABI events that have no domain representation.
	ErrUnhandledEvent = errors.New("unhandled event")

	// ErrLayoutMismatch is returned by VerifyABI when the ABI disagrees with a parser layout.
	ErrLayoutMismatch = errors.New("event layout mismatch")
)

// maxNumber is the largest counter value the store can hold in a signed
// 64-bit column.
var maxNumber = big.NewInt(math.MaxInt64)

// weiDecimals is the number of decimals between wei and whole ether units.
const weiDecimals = 18

// FromWei converts a wei amount into whole ether units without rounding.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -weiDecimals)
}

type argSpec struct {
	name string
	typ  string
}

type parser struct {
	layout []argSpec
	parse  func(r *argReader) Event
}

// parsers maps event names to their positional layout. Positions follow the contract ABI.
var parsers = map[string]parser{
	contract.EventProjectCreated: {
		layout: []argSpec{
			{"owner", "address"}, {"index", "uint256"}, {"goal", "uint256"},
			{"milestones", "uint256"}, {"timestamp", "uint256"},
		},
		parse: func(r *argReader) Event {
			return &ProjectCreated{
				located:    r.located(),
				Owner:      r.address(0),
				Index:      r.number(1),
				Goal:       r.wei(2),
				Milestones: r.number(3),
				Timestamp:  r.number(4),
			}
		},
	},
	contract.EventProjectFunded: {
		layout: []argSpec{
			{"funder", "address"}, {"investmentIndex", "uint256"}, {"amount", "uint256"},
			{"projectOwner", "address"}, {"projectIndex", "uint256"}, {"timestamp", "uint256"},
		},
		parse: func(r *argReader) Event {
			return &ProjectFunded{
				located:         r.located(),
				Funder:          r.address(0),
				InvestmentIndex: r.number(1),
				Amount:          r.wei(2),
				ProjectOwner:    r.address(3),
				ProjectIndex:    r.number(4),
				Timestamp:       r.number(5),
			}
		},
	},
	contract.EventProjectFundsReleased: {
		layout: []argSpec{
			{"owner", "address"}, {"index", "uint256"}, {"amount", "uint256"},
			{"to", "address"}, {"cycle", "uint256"}, {"timestamp", "uint256"},
		},
		parse: func(r *argReader) Event {
			return &ProjectFundsReleased{
				located:   r.located(),
				Owner:     r.address(0),
				Index:     r.number(1),
				Amount:    r.wei(2),
				To:        r.address(3),
				Cycle:     r.number(4),
				Timestamp: r.number(5),
			}
		},
	},
	contract.EventVotingCycleInitiated: {
		layout: []argSpec{
			{"projectOwner", "address"}, {"projectIndex", "uint256"}, {"amount", "uint256"},
			{"depositWallet", "address"}, {"votingCycle", "uint256"}, {"votingDeadline", "uint256"},
			{"votesNeeded", "uint256"},
		},
		parse: func(r *argReader) Event {
			return &VotingCycleInitiated{
				located:        r.located(),
				ProjectOwner:   r.address(0),
				ProjectIndex:   r.number(1),
				Amount:         r.wei(2),
				DepositWallet:  r.address(3),
				VotingCycle:    r.number(4),
				VotingDeadline: r.number(5),
				VotesNeeded:    r.number(6),
			}
		},
	},
	contract.EventVoted: {
		layout: []argSpec{
			{"projectOwner", "address"}, {"projectIndex", "uint256"},
			{"voteBy", "address"}, {"votingCycle", "uint256"},
		},
		parse: func(r *argReader) Event {
			return &Voted{
				located:      r.located(),
				ProjectOwner: r.address(0),
				ProjectIndex: r.number(1),
				VoteBy:       r.address(2),
				VotingCycle:  r.number(3),
			}
		},
	},
}

// Names returns the names of all events with a domain representation.
func Names() []string {
	return []string{
		contract.EventProjectCreated,
		contract.EventProjectFunded,
		contract.EventProjectFundsReleased,
		contract.EventVotingCycleInitiated,
		contract.EventVoted,
	}
}

// Parse builds the domain event for a decoded log. It is pure.
func Parse(decoded *decoder.DecodedEvent) (Event, error) {
	if decoded == nil {
		return nil, ErrNilEvent
	}

	p, ok := parsers[decoded.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, decoded.Name)
	}

	if len(decoded.Args) != len(p.layout) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d",
			ErrMalformedEvent, decoded.Name, len(p.layout), len(decoded.Args))
	}

	r := &argReader{event: decoded}
	event := p.parse(r)
	if r.err != nil {
		return nil, r.err
	}

	return event, nil
}

// VerifyABI checks that every handled event exists in the ABI with the argument
// names and types the parsers read positionally.
func VerifyABI(contractABI *abi.ABI) error {
	for _, name := range Names() {
		event, ok := contractABI.Events[name]
		if !ok {
			return fmt.Errorf("%w: %s is missing from the ABI", ErrLayoutMismatch, name)
		}

		layout := parsers[name].layout
		if len(event.Inputs) != len(layout) {
			return fmt.Errorf("%w: %s has %d inputs, expected %d",
				ErrLayoutMismatch, name, len(event.Inputs), len(layout))
		}

		for i, spec := range layout {
			input := event.Inputs[i]
			if input.Name != spec.name || input.Type.String() != spec.typ {
				return fmt.Errorf("%w: %s input %d is %s %s, expected %s %s",
					ErrLayoutMismatch, name, i, input.Type.String(), input.Name, spec.typ, spec.name)
			}
		}
	}

	return nil
}

// argReader reads typed positional arguments, keeping the first error.
type argReader struct {
	event *decoder.DecodedEvent
	err   error
}

func (r *argReader) located() located {
	return located{pos: r.event.Position}
}

func (r *argReader) fail(i int, format string, args ...any) {
	if r.err != nil {
		return
	}
	r.err = fmt.Errorf("%w: %s argument %d: %s", ErrMalformedEvent, r.event.Name, i, fmt.Sprintf(format, args...))
}

func (r *argReader) address(i int) common.Address {
	addr, ok := r.event.Args[i].(common.Address)
	if !ok {
		r.fail(i, "expected address, got %T", r.event.Args[i])
	}

	return addr
}

func (r *argReader) bigInt(i int) *big.Int {
	v, ok := r.event.Args[i].(*big.Int)
	if !ok || v == nil {
		r.fail(i, "expected uint256, got %T", r.event.Args[i])
		return new(big.Int)
	}

	return v
}

func (r *argReader) number(i int) uint64 {
	v := r.bigInt(i)
	if v.Cmp(maxNumber) > 0 {
		r.fail(i, "value %s does not fit in int64", v)
		return 0
	}

	return v.Uint64()
}

func (r *argReader) wei(i int) decimal.Decimal {
	return FromWei(r.bigInt(i))
}
