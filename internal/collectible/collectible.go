// Package collectible is a minimal non fungible token contract that proposals can buy from.
package collectible

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownMethod     = errors.New("unknown method")
	ErrInsufficientPrice = errors.New("insufficient payment for mint")
	ErrZeroAddress       = errors.New("mint to the zero address")
	ErrNonexistentToken  = errors.New("owner query for nonexistent token")
)

type Collectible struct {
	abi   *abi.ABI
	price *big.Int

	owners   map[uint64]common.Address
	balances map[common.Address]uint64
	next     uint64
}

// New deploys a collectible that charges price per mint, nil for free mints
func New(price *big.Int) (*Collectible, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}

	if price == nil {
		price = new(big.Int)
	}

	return &Collectible{
		abi:      parsed,
		price:    new(big.Int).Set(price),
		owners:   map[uint64]common.Address{},
		balances: map[common.Address]uint64{},
		next:     1,
	}, nil
}

// Call decodes payload against the contract ABI and runs the selected method
func (c *Collectible) Call(j *journal.Journal, caller common.Address, value *big.Int, payload []byte) ([]byte, error) {
	if len(payload) < 4 {
		return nil, ErrUnknownMethod
	}

	method, err := c.abi.MethodById(payload[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, payload[:4])
	}

	args, err := method.Inputs.Unpack(payload[4:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method.Name, err)
	}

	var out []interface{}
	switch method.Name {
	case "mint":
		id, err := c.mint(j, args[0].(common.Address), value)
		if err != nil {
			return nil, err
		}
		out = []interface{}{new(big.Int).SetUint64(id)}
	case "balanceOf":
		out = []interface{}{new(big.Int).SetUint64(c.BalanceOf(args[0].(common.Address)))}
	case "ownerOf":
		owner, err := c.OwnerOf(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		out = []interface{}{owner}
	case "totalSupply":
		out = []interface{}{new(big.Int).SetUint64(c.TotalSupply())}
	case "price":
		out = []interface{}{new(big.Int).Set(c.price)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
	}

	return method.Outputs.Pack(out...)
}

func (c *Collectible) mint(j *journal.Journal, to common.Address, value *big.Int) (uint64, error) {
	if to == (common.Address{}) {
		return 0, ErrZeroAddress
	}

	if value == nil || value.Cmp(c.price) < 0 {
		return 0, ErrInsufficientPrice
	}

	id := c.next
	c.next++
	c.owners[id] = to
	c.balances[to]++

	j.Append(func() {
		c.balances[to]--
		if c.balances[to] == 0 {
			delete(c.balances, to)
		}
		delete(c.owners, id)
		c.next--
	})

	return id, nil
}

func (c *Collectible) BalanceOf(owner common.Address) uint64 {
	return c.balances[owner]
}

func (c *Collectible) OwnerOf(id *big.Int) (common.Address, error) {
	if !id.IsUint64() {
		return common.Address{}, ErrNonexistentToken
	}

	owner, ok := c.owners[id.Uint64()]
	if !ok {
		return common.Address{}, ErrNonexistentToken
	}

	return owner, nil
}

func (c *Collectible) TotalSupply() uint64 {
	return c.next - 1
}
