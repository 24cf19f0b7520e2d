package governor

import (
	"context"
	"math/big"

	"github.com/citizenwallet/dao/internal/lifecycle"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

// TreasuryView is what the DAO holds
type TreasuryView struct {
	Address common.Address `json:"address"`
	Balance *big.Int       `json:"balance"`
	Tokens  *big.Int       `json:"tokens"`
	Supply  *big.Int       `json:"supply"`
}

func (g *Governor) State(id uint64) (dao.ProposalState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.proposals.Get(id)
	if err != nil {
		return 0, err
	}

	return lifecycle.State(p, g.clock.Now(), g.params), nil
}

// Proposal returns a copy of proposal id along with its current state
func (g *Governor) Proposal(id uint64) (*dao.Proposal, dao.ProposalState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.proposals.Get(id)
	if err != nil {
		return nil, 0, err
	}

	return p.Copy(), lifecycle.State(p, g.clock.Now(), g.params), nil
}

func (g *Governor) Receipt(id uint64, voter common.Address) (dao.Receipt, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, err := g.proposals.Get(id)
	if err != nil {
		return dao.Receipt{}, err
	}

	return g.voting.Receipt(id, voter), nil
}

func (g *Governor) LatestProposalID(proposer common.Address) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.proposals.LatestID(proposer)
}

func (g *Governor) ProposalCount() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.proposals.Count()
}

func (g *Governor) VotingBalance(addr common.Address) *big.Int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.ledger.VotingBalance(addr)
}

func (g *Governor) BalanceOf(addr common.Address) *big.Int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.ledger.BalanceOf(addr)
}

func (g *Governor) DelegateOf(addr common.Address) common.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.ledger.DelegateOf(addr)
}

func (g *Governor) IsMember(addr common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.registry.IsMember(addr)
}

func (g *Governor) Member(addr common.Address) dao.Member {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.member(addr)
}

// Members returns every member in join order
func (g *Governor) Members() []dao.Member {
	g.mu.RLock()
	defer g.mu.RUnlock()

	addrs := g.registry.Members()

	ms := make([]dao.Member, len(addrs))
	for i, addr := range addrs {
		ms[i] = g.member(addr)
	}

	return ms
}

func (g *Governor) member(addr common.Address) dao.Member {
	return dao.Member{
		Address:  addr,
		Joined:   g.registry.IsMember(addr),
		Balance:  g.ledger.BalanceOf(addr),
		Delegate: g.ledger.DelegateOf(addr),
	}
}

func (g *Governor) Treasury() TreasuryView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return TreasuryView{
		Address: g.address,
		Balance: g.treasury.Balance(),
		Tokens:  g.ledger.BalanceOf(g.address),
		Supply:  g.ledger.TotalSupply(),
	}
}

// Call runs a read only call against a deployed contract
func (g *Governor) Call(ctx context.Context, target common.Address, payload []byte) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.host.Call(ctx, target, payload)
}

// ReceivedBy returns the funding asset proposals sent to target
func (g *Governor) ReceivedBy(target common.Address) *big.Int {
	return g.host.BalanceOf(target)
}
