// Package dispatch executes proposal actions against their targets.
package dispatch

import (
	"context"
	"fmt"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

// ActionError reports which action of a proposal failed
type ActionError struct {
	Index     int
	Target    common.Address
	Signature string
	Err       error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d to %s (%s): %v", e.Index, e.Target.Hex(), e.Signature, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

type Dispatcher struct {
	transactor dao.Transactor
}

func New(t dao.Transactor) *Dispatcher {
	return &Dispatcher{
		transactor: t,
	}
}

// Dispatch invokes every action in order inside one Tx. On success the Tx is
// returned open and the caller decides whether to commit it. On failure it has
// already been rolled back.
func (d *Dispatcher) Dispatch(ctx context.Context, actions dao.Actions) (dao.Tx, error) {
	err := actions.Validate()
	if err != nil {
		return nil, err
	}

	tx, err := d.transactor.Begin(ctx)
	if err != nil {
		return nil, err
	}

	for i := range actions.Targets {
		err = tx.Invoke(ctx, actions.Targets[i], actions.Values[i], actions.Calldatas[i])
		if err != nil {
			rerr := tx.Rollback()
			if rerr != nil {
				return nil, fmt.Errorf("rollback after failed action %d: %w", i, rerr)
			}

			return nil, &ActionError{
				Index:     i,
				Target:    actions.Targets[i],
				Signature: actions.Signatures[i],
				Err:       err,
			}
		}
	}

	return tx, nil
}
