package voting

import (
	"math/big"
	"testing"

	"github.com/citizenwallet/dao/internal/journal"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	m1 = common.HexToAddress("0x1000000000000000000000000000000000000001")
	m2 = common.HexToAddress("0x1000000000000000000000000000000000000002")
)

func newProposal() *dao.Proposal {
	return &dao.Proposal{
		ID:           1,
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
	}
}

func TestCastVote(t *testing.T) {
	e := New()
	p := newProposal()

	r, err := e.CastVote(nil, p, dao.ProposalStateActive, m1, true, dao.Ether(1))
	require.NoError(t, err)
	require.True(t, r.HasVoted)
	require.True(t, r.Support)
	require.Equal(t, dao.Ether(1), r.Votes)

	_, err = e.CastVote(nil, p, dao.ProposalStateActive, m2, false, dao.Ether(2))
	require.NoError(t, err)

	require.Equal(t, dao.Ether(1), p.ForVotes)
	require.Equal(t, dao.Ether(2), p.AgainstVotes)

	got := e.Receipt(1, m2)
	require.True(t, got.HasVoted)
	require.False(t, got.Support)
	require.Equal(t, dao.Ether(2), got.Votes)

	require.Len(t, e.Receipts(1), 2)
}

func TestCastVoteTwice(t *testing.T) {
	e := New()
	p := newProposal()

	_, err := e.CastVote(nil, p, dao.ProposalStateActive, m1, true, dao.Ether(1))
	require.NoError(t, err)

	// switching sides is still a second vote
	_, err = e.CastVote(nil, p, dao.ProposalStateActive, m1, false, dao.Ether(1))
	require.ErrorIs(t, err, dao.ErrAlreadyVoted)

	require.Equal(t, dao.Ether(1), p.ForVotes)
	require.Equal(t, 0, p.AgainstVotes.Sign())
	require.True(t, e.Receipt(1, m1).Support)
}

func TestCastVoteRejected(t *testing.T) {
	tests := []struct {
		name   string
		state  dao.ProposalState
		weight *big.Int
		err    error
	}{
		{"pending", dao.ProposalStatePending, dao.Ether(1), dao.ErrProposalPending},
		{"succeeded", dao.ProposalStateSucceeded, dao.Ether(1), dao.ErrVotingClosed},
		{"defeated", dao.ProposalStateDefeated, dao.Ether(1), dao.ErrVotingClosed},
		{"executed", dao.ProposalStateExecuted, dao.Ether(1), dao.ErrVotingClosed},
		{"no weight", dao.ProposalStateActive, big.NewInt(0), dao.ErrInsufficientVotingBalance},
		{"nil weight", dao.ProposalStateActive, nil, dao.ErrInsufficientVotingBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			p := newProposal()

			_, err := e.CastVote(nil, p, tt.state, m1, true, tt.weight)
			require.ErrorIs(t, err, tt.err)
			require.False(t, e.Receipt(1, m1).HasVoted)
			require.Equal(t, 0, p.ForVotes.Sign())
		})
	}
}

func TestReceiptIsACopy(t *testing.T) {
	e := New()
	p := newProposal()

	_, err := e.CastVote(nil, p, dao.ProposalStateActive, m1, true, dao.Ether(1))
	require.NoError(t, err)

	r := e.Receipt(1, m1)
	r.Votes.SetInt64(42)

	require.Equal(t, dao.Ether(1), e.Receipt(1, m1).Votes)
}

func TestCastVoteRevert(t *testing.T) {
	e := New()
	p := newProposal()

	j := journal.New()
	_, err := e.CastVote(j, p, dao.ProposalStateActive, m1, false, dao.Ether(3))
	require.NoError(t, err)

	j.Revert()

	require.False(t, e.Receipt(1, m1).HasVoted)
	require.Equal(t, 0, p.AgainstVotes.Sign())

	_, err = e.CastVote(nil, p, dao.ProposalStateActive, m1, true, dao.Ether(1))
	require.NoError(t, err)
}

func TestRestore(t *testing.T) {
	e := New()
	e.Restore(map[uint64]map[common.Address]dao.Receipt{
		4: {m2: {HasVoted: true, Support: true, Votes: dao.Ether(2)}},
	})

	require.True(t, e.Receipt(4, m2).HasVoted)
	require.False(t, e.Receipt(4, m1).HasVoted)
	require.Equal(t, 0, e.Receipt(4, m1).Votes.Sign())
}
