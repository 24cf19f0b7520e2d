package governance

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/citizenwallet/dao/internal/dispatch"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{dao.ErrArityMismatch, http.StatusBadRequest},
		{dao.ErrNoActions, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", dao.ErrInvalidAmount, "x"), http.StatusBadRequest},
		{fmt.Errorf("%w: %q", dao.ErrInvalidAddress, "x"), http.StatusBadRequest},
		{dao.ErrInsufficientFee, http.StatusForbidden},
		{dao.ErrAlreadyMember, http.StatusForbidden},
		{dao.ErrNotMember, http.StatusForbidden},
		{dao.ErrInsufficientVotingBalance, http.StatusForbidden},
		{dao.ErrDelegationCycle, http.StatusForbidden},
		{fmt.Errorf("proposal 9: %w", dao.ErrUnknownProposal), http.StatusNotFound},
		{dao.ErrProposalPending, http.StatusConflict},
		{dao.ErrProposalActive, http.StatusConflict},
		{dao.ErrVotingClosed, http.StatusConflict},
		{dao.ErrAlreadyVoted, http.StatusConflict},
		{dao.ErrAlreadyExecuted, http.StatusConflict},
		{dao.ErrProposalDefeated, http.StatusConflict},
		{&dispatch.ActionError{Index: 0, Target: common.Address{}, Err: errors.New("execution reverted")}, http.StatusUnprocessableEntity},
		{dao.ErrInsufficientTreasury, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			require.Equal(t, tc.want, Status(tc.err))
		})
	}
}
