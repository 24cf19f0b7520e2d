package governor

import (
	"errors"
	"fmt"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNotEmpty = errors.New("governor already has state")

// Restore loads a persisted snapshot into a freshly created governor
func (g *Governor) Restore(s *dao.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.registry.Members()) > 0 || g.proposals.Count() > 0 {
		return ErrNotEmpty
	}

	err := checkDelegations(s.Members)
	if err != nil {
		return fmt.Errorf("restoring members: %w", err)
	}

	for _, m := range s.Members {
		g.ledger.Restore(m.Address, m.Balance, m.Delegate)
		if m.Joined {
			g.registry.Restore(m.Address)
		}
	}

	if s.Treasury != nil {
		g.treasury.Restore(s.Treasury)
	}

	err = g.proposals.Restore(s.Proposals)
	if err != nil {
		return fmt.Errorf("restoring proposals: %w", err)
	}

	g.voting.Restore(s.Receipts)

	return nil
}

// checkDelegations rejects persisted delegate pointers that form a cycle
func checkDelegations(members []dao.Member) error {
	delegates := make(map[common.Address]common.Address, len(members))
	for _, m := range members {
		if m.Delegate != (common.Address{}) && m.Delegate != m.Address {
			delegates[m.Address] = m.Delegate
		}
	}

	for start := range delegates {
		cur := start
		for steps := 0; ; steps++ {
			next, ok := delegates[cur]
			if !ok {
				break
			}
			if next == start || steps >= len(delegates) {
				return fmt.Errorf("%w: %s", dao.ErrDelegationCycle, start.Hex())
			}
			cur = next
		}
	}

	return nil
}
