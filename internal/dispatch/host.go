package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/internal/treasury"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

var ErrTxDone = errors.New("transaction already committed or rolled back")

// Contract is a call target living inside the Host. Any state change a call
// makes must be recorded on j so that a failed transaction can undo it.
type Contract interface {
	Call(j *journal.Journal, caller common.Address, value *big.Int, payload []byte) ([]byte, error)
}

// Host is an in-process Transactor. Value sent with a call leaves the treasury
// and is credited to the target.
type Host struct {
	mu sync.Mutex

	treasury  *treasury.Treasury
	contracts map[common.Address]Contract
	balances  map[common.Address]*big.Int
}

func NewHost(t *treasury.Treasury) *Host {
	return &Host{
		treasury:  t,
		contracts: map[common.Address]Contract{},
		balances:  map[common.Address]*big.Int{},
	}
}

// Register deploys c at addr
func (h *Host) Register(addr common.Address, c Contract) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.contracts[addr] = c
}

// BalanceOf returns the funding asset a target received from executed proposals
func (h *Host) BalanceOf(addr common.Address) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.balances[addr]
	if !ok {
		return new(big.Int)
	}

	return new(big.Int).Set(b)
}

// Call runs payload against target from the treasury address without keeping any of its effects
func (h *Host) Call(ctx context.Context, target common.Address, payload []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.contracts[target]
	if !ok {
		return nil, nil
	}

	j := journal.New()
	defer j.Revert()

	return c.Call(j, h.treasury.Address(), new(big.Int), payload)
}

// Begin starts a transaction, transactions on one Host run one at a time
func (h *Host) Begin(ctx context.Context) (dao.Tx, error) {
	h.mu.Lock()

	return &localTx{
		h: h,
		j: journal.New(),
	}, nil
}

type localTx struct {
	h    *Host
	j    *journal.Journal
	done bool
}

// Invoke debits value from the treasury, credits it to target and calls it.
// Calling an address with nothing deployed only moves the value.
func (tx *localTx) Invoke(ctx context.Context, target common.Address, value *big.Int, payload []byte) error {
	if tx.done {
		return ErrTxDone
	}

	if value == nil {
		value = new(big.Int)
	}

	rev := tx.j.Snapshot()

	err := tx.h.treasury.Withdraw(tx.j, value)
	if err != nil {
		return err
	}

	tx.credit(target, value)

	c, ok := tx.h.contracts[target]
	if !ok {
		return nil
	}

	_, err = c.Call(tx.j, tx.h.treasury.Address(), value, payload)
	if err != nil {
		tx.j.RevertTo(rev)
		return fmt.Errorf("%w: %w", dao.ErrCallFailed, err)
	}

	return nil
}

func (tx *localTx) credit(target common.Address, value *big.Int) {
	prev, ok := tx.h.balances[target]
	if !ok {
		prev = new(big.Int)
	}

	tx.h.balances[target] = new(big.Int).Add(prev, value)
	tx.j.Append(func() {
		if !ok {
			delete(tx.h.balances, target)
			return
		}
		tx.h.balances[target] = prev
	})
}

func (tx *localTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}

	tx.done = true
	tx.j.Discard()
	tx.h.mu.Unlock()

	return nil
}

func (tx *localTx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}

	tx.done = true
	tx.j.Revert()
	tx.h.mu.Unlock()

	return nil
}
