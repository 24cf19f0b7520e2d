// Package proposals is an append-only store of proposals indexed by their sequential id.
package proposals

import (
	"fmt"
	"math/big"
	"time"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type Store struct {
	// proposal with id n lives at n-1
	arena  []*dao.Proposal
	latest map[common.Address]uint64
}

func New() *Store {
	return &Store{
		latest: map[common.Address]uint64{},
	}
}

// Create validates the actions and stores a new proposal with empty tallies
func (s *Store) Create(j *journal.Journal, proposer common.Address, actions dao.Actions, description string, now time.Time) (*dao.Proposal, error) {
	err := actions.Validate()
	if err != nil {
		return nil, err
	}

	p := &dao.Proposal{
		ID:           uint64(len(s.arena)) + 1,
		Proposer:     proposer,
		Actions:      actions.Copy(),
		Description:  description,
		CreatedAt:    now,
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
	}

	prev, hadPrev := s.latest[proposer]

	s.arena = append(s.arena, p)
	s.latest[proposer] = p.ID

	j.Append(func() {
		s.arena = s.arena[:len(s.arena)-1]
		if hadPrev {
			s.latest[proposer] = prev
		} else {
			delete(s.latest, proposer)
		}
	})

	return p, nil
}

// Get returns the stored proposal, callers must not hold on to it across operations
func (s *Store) Get(id uint64) (*dao.Proposal, error) {
	if id == 0 || id > uint64(len(s.arena)) {
		return nil, fmt.Errorf("%w: %d", dao.ErrUnknownProposal, id)
	}

	return s.arena[id-1], nil
}

// LatestID returns the id of the last proposal created by proposer, 0 if none
func (s *Store) LatestID(proposer common.Address) uint64 {
	return s.latest[proposer]
}

func (s *Store) Count() uint64 {
	return uint64(len(s.arena))
}

// SetExecuted flags a proposal as executed
func (s *Store) SetExecuted(j *journal.Journal, id uint64) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if p.Executed {
		return dao.ErrAlreadyExecuted
	}

	p.Executed = true
	j.Append(func() { p.Executed = false })

	return nil
}

// Restore loads persisted proposals, which must come in id order without gaps
func (s *Store) Restore(ps []*dao.Proposal) error {
	for _, p := range ps {
		if p.ID != uint64(len(s.arena))+1 {
			return fmt.Errorf("proposal %d out of sequence, expected %d", p.ID, len(s.arena)+1)
		}

		s.arena = append(s.arena, p.Copy())
		s.latest[p.Proposer] = p.ID
	}

	return nil
}
