package dao

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Invoker performs a single call to a target carrying value of the funding asset
type Invoker interface {
	Invoke(ctx context.Context, target common.Address, value *big.Int, payload []byte) error
}

// Tx groups invocations so they either all take effect or none do
type Tx interface {
	Invoker
	Commit() error
	Rollback() error
}

// Transactor starts a Tx
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}
