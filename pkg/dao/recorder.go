package dao

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Recorder persists committed governance state.
// A Record call that fails aborts the operation that triggered it.
type Recorder interface {
	RecordMember(ctx context.Context, m Member, treasury *big.Int) error
	RecordProposal(ctx context.Context, p *Proposal) error
	RecordVote(ctx context.Context, p *Proposal, voter common.Address, r Receipt) error
	RecordExecution(ctx context.Context, p *Proposal, treasury *big.Int) error
}

// Snapshot is the full persisted state of a DAO
type Snapshot struct {
	Members   []Member
	Proposals []*Proposal
	Receipts  map[uint64]map[common.Address]Receipt
	Treasury  *big.Int
}

type NopRecorder struct{}

func (NopRecorder) RecordMember(ctx context.Context, m Member, treasury *big.Int) error {
	return nil
}

func (NopRecorder) RecordProposal(ctx context.Context, p *Proposal) error {
	return nil
}

func (NopRecorder) RecordVote(ctx context.Context, p *Proposal, voter common.Address, r Receipt) error {
	return nil
}

func (NopRecorder) RecordExecution(ctx context.Context, p *Proposal, treasury *big.Int) error {
	return nil
}
