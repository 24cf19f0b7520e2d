// Package treasury holds the DAO's balance of the funding asset.
package treasury

import (
	"math/big"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

type Treasury struct {
	address common.Address
	balance *big.Int
}

func New(address common.Address) *Treasury {
	return &Treasury{
		address: address,
		balance: new(big.Int),
	}
}

// Address is the account the DAO holds funds and calls targets from
func (t *Treasury) Address() common.Address {
	return t.address
}

func (t *Treasury) Balance() *big.Int {
	return new(big.Int).Set(t.balance)
}

func (t *Treasury) Deposit(j *journal.Journal, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dao.ErrInvalidAmount
	}

	next := new(big.Int).Add(t.balance, amount)
	if next.Cmp(math.MaxBig256) > 0 {
		return dao.ErrOverflow
	}

	prev := t.balance
	t.balance = next
	j.Append(func() { t.balance = prev })

	return nil
}

func (t *Treasury) Withdraw(j *journal.Journal, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dao.ErrInvalidAmount
	}

	if t.balance.Cmp(amount) < 0 {
		return dao.ErrInsufficientTreasury
	}

	prev := t.balance
	t.balance = new(big.Int).Sub(t.balance, amount)
	j.Append(func() { t.balance = prev })

	return nil
}

// Restore sets a persisted balance
func (t *Treasury) Restore(balance *big.Int) {
	t.balance = new(big.Int).Set(balance)
}
