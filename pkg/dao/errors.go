package dao

import "errors"

// validation
var (
	ErrNoActions      = errors.New("proposal must provide actions")
	ErrArityMismatch  = errors.New("proposal function arity mismatch")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
)

// eligibility
var (
	ErrInsufficientFee           = errors.New("minimum membership fee required")
	ErrAlreadyMember             = errors.New("not a new member")
	ErrNotMember                 = errors.New("not a member")
	ErrInsufficientVotingBalance = errors.New("insufficient voting balance")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrDelegationCycle           = errors.New("delegation cycle")
	ErrOverflow                  = errors.New("amount overflow")
)

// proposal lifecycle
var (
	ErrUnknownProposal  = errors.New("unknown proposal")
	ErrProposalPending  = errors.New("proposal pending")
	ErrProposalActive   = errors.New("proposal active")
	ErrVotingClosed     = errors.New("voting line closed")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrAlreadyExecuted  = errors.New("proposal already executed")
	ErrProposalDefeated = errors.New("proposal defeated")
)

// execution
var (
	ErrCallFailed           = errors.New("call failed")
	ErrInsufficientTreasury = errors.New("insufficient treasury funds")
)
