package dao

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ProposalState int

const (
	ProposalStatePending ProposalState = iota
	ProposalStateActive
	ProposalStateDefeated
	ProposalStateSucceeded
	ProposalStateExecuted
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStatePending:
		return "pending"
	case ProposalStateActive:
		return "active"
	case ProposalStateDefeated:
		return "defeated"
	case ProposalStateSucceeded:
		return "succeeded"
	case ProposalStateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

func (s ProposalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ProposalState) UnmarshalText(text []byte) error {
	for st := ProposalStatePending; st <= ProposalStateExecuted; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}

	return fmt.Errorf("unknown proposal state %q", text)
}

// Member is the ledger view of an address
type Member struct {
	Address  common.Address `json:"address"`
	Joined   bool           `json:"joined"`
	Balance  *big.Int       `json:"balance"`
	Delegate common.Address `json:"delegate"`
}

// Actions are the calls a proposal performs when executed.
// Element i of every slice describes action i.
type Actions struct {
	Targets    []common.Address `json:"targets"`
	Values     []*big.Int       `json:"values"`
	Signatures []string         `json:"signatures"`
	Calldatas  []hexutil.Bytes  `json:"calldatas"`
}

// Validate checks the shape of the action arrays
func (a Actions) Validate() error {
	if len(a.Targets) == 0 {
		return ErrNoActions
	}

	n := len(a.Targets)
	if len(a.Values) != n || len(a.Signatures) != n || len(a.Calldatas) != n {
		return ErrArityMismatch
	}

	for _, v := range a.Values {
		if v == nil || v.Sign() < 0 {
			return ErrInvalidAmount
		}
	}

	return nil
}

// Len returns the number of actions
func (a Actions) Len() int {
	return len(a.Targets)
}

// Copy returns a deep copy so that callers cannot mutate stored actions
func (a Actions) Copy() Actions {
	c := Actions{
		Targets:    make([]common.Address, len(a.Targets)),
		Values:     make([]*big.Int, len(a.Values)),
		Signatures: make([]string, len(a.Signatures)),
		Calldatas:  make([]hexutil.Bytes, len(a.Calldatas)),
	}

	copy(c.Targets, a.Targets)
	copy(c.Signatures, a.Signatures)
	for i, v := range a.Values {
		c.Values[i] = new(big.Int).Set(v)
	}
	for i, d := range a.Calldatas {
		c.Calldatas[i] = common.CopyBytes(d)
	}

	return c
}

type Proposal struct {
	ID       uint64         `json:"id"`
	Proposer common.Address `json:"proposer"`

	Actions

	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	ForVotes     *big.Int  `json:"for_votes"`
	AgainstVotes *big.Int  `json:"against_votes"`
	Executed     bool      `json:"executed"`
}

// Copy returns a deep copy of the proposal
func (p *Proposal) Copy() *Proposal {
	return &Proposal{
		ID:           p.ID,
		Proposer:     p.Proposer,
		Actions:      p.Actions.Copy(),
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
		ForVotes:     new(big.Int).Set(p.ForVotes),
		AgainstVotes: new(big.Int).Set(p.AgainstVotes),
		Executed:     p.Executed,
	}
}

type Receipt struct {
	HasVoted bool     `json:"has_voted"`
	Support  bool     `json:"support"`
	Votes    *big.Int `json:"votes"`
}

// Params are the deployment constants of a DAO
type Params struct {
	MinMembershipFee  *big.Int
	MintAmount        *big.Int
	TreasuryAllotment *big.Int
	VotingDelay       time.Duration
	VotingPeriod      time.Duration
	// Quorum is the minimum amount of for votes, nil or zero disables it
	Quorum *big.Int
}

var ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Ether returns n * 10^18
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

// DefaultParams returns the constants the collector DAO was deployed with
func DefaultParams() Params {
	return Params{
		MinMembershipFee:  Ether(1),
		MintAmount:        Ether(1),
		TreasuryAllotment: Ether(10),
		VotingDelay:       15 * time.Second,
		VotingPeriod:      3 * 24 * time.Hour,
	}
}
