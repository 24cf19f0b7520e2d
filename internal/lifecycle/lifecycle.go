// Package lifecycle derives the state of a proposal from its tallies and the clock.
package lifecycle

import (
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
)

// VotingStart is the first instant ballots are accepted
func VotingStart(p *dao.Proposal, params dao.Params) time.Time {
	return p.CreatedAt.Add(params.VotingDelay)
}

// VotingEnd is the first instant ballots are no longer accepted
func VotingEnd(p *dao.Proposal, params dao.Params) time.Time {
	return VotingStart(p, params).Add(params.VotingPeriod)
}

// State returns the state of p at now. Executed is terminal and wins over the clock.
func State(p *dao.Proposal, now time.Time, params dao.Params) dao.ProposalState {
	if p.Executed {
		return dao.ProposalStateExecuted
	}

	if now.Before(VotingStart(p, params)) {
		return dao.ProposalStatePending
	}

	if now.Before(VotingEnd(p, params)) {
		return dao.ProposalStateActive
	}

	if Passed(p, params) {
		return dao.ProposalStateSucceeded
	}

	return dao.ProposalStateDefeated
}

// Passed reports whether the tallies of p clear the majority and quorum thresholds
func Passed(p *dao.Proposal, params dao.Params) bool {
	if p.ForVotes.Cmp(p.AgainstVotes) <= 0 {
		return false
	}

	if params.Quorum != nil && params.Quorum.Sign() > 0 && p.ForVotes.Cmp(params.Quorum) < 0 {
		return false
	}

	return true
}
