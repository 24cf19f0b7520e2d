package dao

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventMemberJoined      EventType = "member_joined"
	EventDelegateChanged   EventType = "delegate_changed"
	EventProposalCreated   EventType = "proposal_created"
	EventVoteCast          EventType = "vote_cast"
	EventProposalExecuted  EventType = "proposal_executed"
	EventExecutionReverted EventType = "execution_reverted"
)

type Event struct {
	Type       EventType      `json:"type"`
	Time       time.Time      `json:"time"`
	Address    common.Address `json:"address"`
	ProposalID uint64         `json:"proposal_id,omitempty"`
	Support    bool           `json:"support,omitempty"`
	Amount     *big.Int       `json:"amount,omitempty"`
	Target     common.Address `json:"target,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// Notifier receives events after the operation that produced them committed
type Notifier interface {
	Notify(ev Event)
}

type NopNotifier struct{}

func (NopNotifier) Notify(ev Event) {}

// Notifiers fans an event out to every notifier in order
type Notifiers []Notifier

func (n Notifiers) Notify(ev Event) {
	for _, notifier := range n {
		notifier.Notify(ev)
	}
}
