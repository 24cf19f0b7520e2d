// Package membership admits paying members into the DAO.
package membership

import (
	"math/big"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/internal/ledger"
	"github.com/citizenwallet/dao/internal/treasury"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type Registry struct {
	minFee     *big.Int
	mintAmount *big.Int

	ledger   *ledger.Ledger
	treasury *treasury.Treasury

	joined  map[common.Address]bool
	members []common.Address
}

func New(minFee, mintAmount *big.Int, l *ledger.Ledger, t *treasury.Treasury) *Registry {
	return &Registry{
		minFee:     new(big.Int).Set(minFee),
		mintAmount: new(big.Int).Set(mintAmount),
		ledger:     l,
		treasury:   t,
		joined:     map[common.Address]bool{},
	}
}

// Join admits caller, minting the fixed allotment whatever the payment above the fee
func (r *Registry) Join(j *journal.Journal, caller common.Address, payment *big.Int) error {
	if payment == nil || payment.Cmp(r.minFee) < 0 {
		return dao.ErrInsufficientFee
	}

	if r.joined[caller] {
		return dao.ErrAlreadyMember
	}

	steps := journal.New()

	err := r.ledger.Mint(steps, caller, r.mintAmount)
	if err != nil {
		return err
	}

	err = r.treasury.Deposit(steps, payment)
	if err != nil {
		steps.Revert()
		return err
	}

	r.add(caller)
	steps.Append(func() {
		delete(r.joined, caller)
		r.members = r.members[:len(r.members)-1]
	})

	j.Append(steps.Revert)

	return nil
}

func (r *Registry) add(addr common.Address) {
	r.joined[addr] = true
	r.members = append(r.members, addr)
}

func (r *Registry) IsMember(addr common.Address) bool {
	return r.joined[addr]
}

// Members returns the members in join order
func (r *Registry) Members() []common.Address {
	m := make([]common.Address, len(r.members))
	copy(m, r.members)

	return m
}

// Restore marks a persisted member as joined
func (r *Registry) Restore(addr common.Address) {
	if r.joined[addr] {
		return
	}

	r.add(addr)
}
