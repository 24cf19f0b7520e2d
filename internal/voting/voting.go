// Package voting records ballots and keeps proposal tallies in step with them.
package voting

import (
	"math/big"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type Engine struct {
	receipts map[uint64]map[common.Address]dao.Receipt
}

func New() *Engine {
	return &Engine{
		receipts: map[uint64]map[common.Address]dao.Receipt{},
	}
}

// CastVote records a ballot of weight for voter on p, which must be in the given state.
// The receipt and the tally change together.
func (e *Engine) CastVote(j *journal.Journal, p *dao.Proposal, state dao.ProposalState, voter common.Address, support bool, weight *big.Int) (dao.Receipt, error) {
	switch state {
	case dao.ProposalStateActive:
	case dao.ProposalStatePending:
		return dao.Receipt{}, dao.ErrProposalPending
	default:
		return dao.Receipt{}, dao.ErrVotingClosed
	}

	if e.Receipt(p.ID, voter).HasVoted {
		return dao.Receipt{}, dao.ErrAlreadyVoted
	}

	if weight == nil || weight.Sign() <= 0 {
		return dao.Receipt{}, dao.ErrInsufficientVotingBalance
	}

	r := dao.Receipt{
		HasVoted: true,
		Support:  support,
		Votes:    new(big.Int).Set(weight),
	}

	tally := &p.AgainstVotes
	if support {
		tally = &p.ForVotes
	}

	prev := *tally
	*tally = new(big.Int).Add(prev, weight)

	e.put(p.ID, voter, r)

	j.Append(func() {
		*tally = prev
		delete(e.receipts[p.ID], voter)
	})

	return r, nil
}

// Receipt returns the ballot of voter on proposal id, the zero receipt if there is none
func (e *Engine) Receipt(id uint64, voter common.Address) dao.Receipt {
	r, ok := e.receipts[id][voter]
	if !ok {
		return dao.Receipt{Votes: new(big.Int)}
	}

	r.Votes = new(big.Int).Set(r.Votes)
	return r
}

// Receipts returns a copy of every ballot cast on proposal id
func (e *Engine) Receipts(id uint64) map[common.Address]dao.Receipt {
	rs := map[common.Address]dao.Receipt{}
	for voter := range e.receipts[id] {
		rs[voter] = e.Receipt(id, voter)
	}

	return rs
}

func (e *Engine) put(id uint64, voter common.Address, r dao.Receipt) {
	rs, ok := e.receipts[id]
	if !ok {
		rs = map[common.Address]dao.Receipt{}
		e.receipts[id] = rs
	}

	rs[voter] = r
}

// Restore loads persisted receipts, tallies are restored with their proposals
func (e *Engine) Restore(receipts map[uint64]map[common.Address]dao.Receipt) {
	for id, rs := range receipts {
		for voter, r := range rs {
			r.Votes = new(big.Int).Set(r.Votes)
			e.put(id, voter, r)
		}
	}
}
