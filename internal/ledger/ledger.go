// Package ledger keeps voting token balances and the delegation forest.
//
// Voting weight is derived when it is read: an address that delegates to
// itself controls the balances of every address whose delegation chain ends
// on it, an address that delegated away controls nothing. Weight is never
// snapshotted, a ballot always uses the balance at the time it is cast.
package ledger

import (
	"math/big"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

type account struct {
	balance  *big.Int
	delegate common.Address
}

type Ledger struct {
	accounts map[common.Address]*account
	order    []common.Address
	supply   *big.Int
}

func New() *Ledger {
	return &Ledger{
		accounts: map[common.Address]*account{},
		supply:   new(big.Int),
	}
}

func (l *Ledger) get(j *journal.Journal, addr common.Address) *account {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{
			balance:  new(big.Int),
			delegate: addr,
		}
		l.accounts[addr] = acc
		l.order = append(l.order, addr)

		j.Append(func() {
			delete(l.accounts, addr)
			l.order = l.order[:len(l.order)-1]
		})
	}

	return acc
}

// Mint credits amount to addr
func (l *Ledger) Mint(j *journal.Journal, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dao.ErrInvalidAmount
	}

	supply := new(big.Int).Add(l.supply, amount)
	if supply.Cmp(math.MaxBig256) > 0 {
		return dao.ErrOverflow
	}

	// supply bounds every balance, no need to check the account separately
	acc := l.get(j, addr)
	acc.balance.Add(acc.balance, amount)
	prev := l.supply
	l.supply = supply

	j.Append(func() {
		acc.balance.Sub(acc.balance, amount)
		l.supply = prev
	})

	return nil
}

// Burn debits amount from addr
func (l *Ledger) Burn(j *journal.Journal, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dao.ErrInvalidAmount
	}

	acc, ok := l.accounts[addr]
	if !ok || acc.balance.Cmp(amount) < 0 {
		return dao.ErrInsufficientBalance
	}

	acc.balance.Sub(acc.balance, amount)
	l.supply.Sub(l.supply, amount)

	j.Append(func() {
		acc.balance.Add(acc.balance, amount)
		l.supply.Add(l.supply, amount)
	})

	return nil
}

// Delegate points the voting weight of member at target. Delegating to
// oneself resets, delegating to the current target is a no-op.
func (l *Ledger) Delegate(j *journal.Journal, member, target common.Address) error {
	if l.DelegateOf(member) == target {
		return nil
	}

	if target != member {
		// the forest has no cycles, so walking up from target terminates
		for cur := target; ; {
			if cur == member {
				return dao.ErrDelegationCycle
			}

			next := l.DelegateOf(cur)
			if next == cur {
				break
			}
			cur = next
		}
	}

	acc := l.get(j, member)
	prev := acc.delegate
	acc.delegate = target

	j.Append(func() {
		acc.delegate = prev
	})

	return nil
}

// DelegateOf returns the address member delegates to, itself by default
func (l *Ledger) DelegateOf(member common.Address) common.Address {
	acc, ok := l.accounts[member]
	if !ok {
		return member
	}

	return acc.delegate
}

// Root follows the delegation chain of addr to the address that holds its weight
func (l *Ledger) Root(addr common.Address) common.Address {
	cur := addr
	for {
		next := l.DelegateOf(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
}

// BalanceOf returns the raw token balance of addr
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	acc, ok := l.accounts[addr]
	if !ok {
		return new(big.Int)
	}

	return new(big.Int).Set(acc.balance)
}

// VotingBalance returns the weight addr controls right now
func (l *Ledger) VotingBalance(addr common.Address) *big.Int {
	weight := new(big.Int)
	if l.DelegateOf(addr) != addr {
		return weight
	}

	for _, a := range l.order {
		acc := l.accounts[a]
		if acc.balance.Sign() == 0 {
			continue
		}

		if l.Root(a) == addr {
			weight.Add(weight, acc.balance)
		}
	}

	return weight
}

func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.supply)
}

// Addresses returns every address the ledger knows about in the order it first saw them
func (l *Ledger) Addresses() []common.Address {
	addrs := make([]common.Address, len(l.order))
	copy(addrs, l.order)

	return addrs
}

// Restore loads a persisted account without any checks, callers make sure the delegations form no cycle
func (l *Ledger) Restore(addr common.Address, balance *big.Int, delegate common.Address) {
	acc := l.get(nil, addr)

	l.supply.Sub(l.supply, acc.balance)
	acc.balance = new(big.Int).Set(balance)
	l.supply.Add(l.supply, acc.balance)

	if delegate == (common.Address{}) {
		delegate = addr
	}
	acc.delegate = delegate
}
