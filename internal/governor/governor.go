// Package governor is the entry point to a DAO. It serialises every state
// change, persists it through a Recorder and only then lets it become visible.
package governor

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/citizenwallet/dao/internal/dispatch"
	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/internal/ledger"
	"github.com/citizenwallet/dao/internal/lifecycle"
	"github.com/citizenwallet/dao/internal/membership"
	"github.com/citizenwallet/dao/internal/proposals"
	"github.com/citizenwallet/dao/internal/treasury"
	"github.com/citizenwallet/dao/internal/voting"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type Governor struct {
	mu sync.RWMutex

	address common.Address
	params  dao.Params
	clock   dao.Clock

	ledger    *ledger.Ledger
	treasury  *treasury.Treasury
	registry  *membership.Registry
	proposals *proposals.Store
	voting    *voting.Engine

	host       *dispatch.Host
	dispatcher *dispatch.Dispatcher

	recorder dao.Recorder
	notifier dao.Notifier
}

type Option func(g *Governor)

// WithRecorder persists every committed change through r
func WithRecorder(r dao.Recorder) Option {
	return func(g *Governor) {
		g.recorder = r
	}
}

// WithNotifier publishes an event for every committed change to n
func WithNotifier(n dao.Notifier) Option {
	return func(g *Governor) {
		g.notifier = n
	}
}

// New creates a DAO living at address. The address is credited the treasury allotment of the voting token.
func New(address common.Address, params dao.Params, clock dao.Clock, opts ...Option) (*Governor, error) {
	l := ledger.New()
	t := treasury.New(address)
	host := dispatch.NewHost(t)

	g := &Governor{
		address:    address,
		params:     params,
		clock:      dao.NewMonotonicClock(clock),
		ledger:     l,
		treasury:   t,
		registry:   membership.New(params.MinMembershipFee, params.MintAmount, l, t),
		proposals:  proposals.New(),
		voting:     voting.New(),
		host:       host,
		dispatcher: dispatch.New(host),
		recorder:   dao.NopRecorder{},
		notifier:   dao.NopNotifier{},
	}

	for _, opt := range opts {
		opt(g)
	}

	if params.TreasuryAllotment != nil && params.TreasuryAllotment.Sign() > 0 {
		err := l.Mint(nil, address, params.TreasuryAllotment)
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Deploy makes c callable by proposals at addr
func (g *Governor) Deploy(addr common.Address, c dispatch.Contract) {
	g.host.Register(addr, c)
}

func (g *Governor) Address() common.Address {
	return g.address
}

func (g *Governor) Params() dao.Params {
	return g.params
}

func (g *Governor) Now() time.Time {
	return g.clock.Now()
}

// commit persists a change applied on j, undoing it if persisting fails
func (g *Governor) commit(j *journal.Journal, persist func() error) error {
	err := persist()
	if err != nil {
		j.Revert()
		return err
	}

	j.Discard()
	return nil
}

// Join admits caller as a member against payment of the funding asset
func (g *Governor) Join(ctx context.Context, caller common.Address, payment *big.Int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	j := journal.New()

	err := g.registry.Join(j, caller, payment)
	if err != nil {
		return err
	}

	err = g.commit(j, func() error {
		return g.recorder.RecordMember(ctx, g.member(caller), g.treasury.Balance())
	})
	if err != nil {
		return err
	}

	g.notifier.Notify(dao.Event{
		Type:    dao.EventMemberJoined,
		Time:    g.clock.Now(),
		Address: caller,
		Amount:  new(big.Int).Set(payment),
	})

	return nil
}

// Delegate points the voting weight of caller at target, which must be a member or caller itself
func (g *Governor) Delegate(ctx context.Context, caller, target common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.registry.IsMember(caller) {
		return dao.ErrNotMember
	}

	if target != caller && !g.registry.IsMember(target) {
		return dao.ErrNotMember
	}

	if g.ledger.DelegateOf(caller) == target {
		return nil
	}

	j := journal.New()

	err := g.ledger.Delegate(j, caller, target)
	if err != nil {
		return err
	}

	err = g.commit(j, func() error {
		return g.recorder.RecordMember(ctx, g.member(caller), g.treasury.Balance())
	})
	if err != nil {
		return err
	}

	g.notifier.Notify(dao.Event{
		Type:    dao.EventDelegateChanged,
		Time:    g.clock.Now(),
		Address: caller,
		Target:  target,
	})

	return nil
}

// Propose stores a new proposal and returns its id
func (g *Governor) Propose(ctx context.Context, proposer common.Address, actions dao.Actions, description string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	j := journal.New()

	p, err := g.proposals.Create(j, proposer, actions, description, g.clock.Now())
	if err != nil {
		return 0, err
	}

	err = g.commit(j, func() error {
		return g.recorder.RecordProposal(ctx, p)
	})
	if err != nil {
		return 0, err
	}

	g.notifier.Notify(dao.Event{
		Type:       dao.EventProposalCreated,
		Time:       p.CreatedAt,
		Address:    proposer,
		ProposalID: p.ID,
	})

	return p.ID, nil
}

// CastVote records a ballot for voter weighted by its voting balance at this moment
func (g *Governor) CastVote(ctx context.Context, voter common.Address, id uint64, support bool) (dao.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.proposals.Get(id)
	if err != nil {
		return dao.Receipt{}, err
	}

	now := g.clock.Now()
	state := lifecycle.State(p, now, g.params)

	j := journal.New()

	r, err := g.voting.CastVote(j, p, state, voter, support, g.ledger.VotingBalance(voter))
	if err != nil {
		return dao.Receipt{}, err
	}

	err = g.commit(j, func() error {
		return g.recorder.RecordVote(ctx, p, voter, r)
	})
	if err != nil {
		return dao.Receipt{}, err
	}

	g.notifier.Notify(dao.Event{
		Type:       dao.EventVoteCast,
		Time:       now,
		Address:    voter,
		ProposalID: id,
		Support:    support,
		Amount:     new(big.Int).Set(r.Votes),
	})

	return r, nil
}

// Execute runs the actions of a succeeded proposal. Either every action takes
// effect and the proposal is marked executed, or nothing changes.
func (g *Governor) Execute(ctx context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.proposals.Get(id)
	if err != nil {
		return err
	}

	now := g.clock.Now()

	switch lifecycle.State(p, now, g.params) {
	case dao.ProposalStateExecuted:
		return dao.ErrAlreadyExecuted
	case dao.ProposalStateDefeated:
		return dao.ErrProposalDefeated
	case dao.ProposalStatePending:
		return dao.ErrProposalPending
	case dao.ProposalStateActive:
		return dao.ErrProposalActive
	}

	tx, err := g.dispatcher.Dispatch(ctx, p.Actions)
	if err != nil {
		g.notifier.Notify(dao.Event{
			Type:       dao.EventExecutionReverted,
			Time:       now,
			Address:    p.Proposer,
			ProposalID: id,
			Reason:     err.Error(),
		})
		return err
	}

	j := journal.New()

	err = g.proposals.SetExecuted(j, id)
	if err == nil {
		err = g.commit(j, func() error {
			return g.recorder.RecordExecution(ctx, p, g.treasury.Balance())
		})
	}
	if err != nil {
		rerr := tx.Rollback()
		if rerr != nil {
			return rerr
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	g.notifier.Notify(dao.Event{
		Type:       dao.EventProposalExecuted,
		Time:       now,
		Address:    p.Proposer,
		ProposalID: id,
	})

	return nil
}
