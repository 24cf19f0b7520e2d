package governance

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/internal/dispatch"
	"github.com/citizenwallet/dao/internal/governor"
	"github.com/citizenwallet/dao/internal/lifecycle"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
)

type Service struct {
	g *governor.Governor
}

func NewService(g *governor.Governor) *Service {
	return &Service{
		g: g,
	}
}

type JoinRequest struct {
	Payment string `json:"payment"`
}

type DelegateRequest struct {
	Target string `json:"target"`
}

type ProposeRequest struct {
	Targets     []string        `json:"targets"`
	Values      []string        `json:"values"`
	Signatures  []string        `json:"signatures"`
	Calldatas   []hexutil.Bytes `json:"calldatas"`
	Description string          `json:"description"`
}

type VoteRequest struct {
	Support bool `json:"support"`
}

type MemberResponse struct {
	dao.Member
	VotingBalance    *big.Int `json:"voting_balance"`
	LatestProposalID uint64   `json:"latest_proposal_id"`
}

type ProposalResponse struct {
	*dao.Proposal
	State     dao.ProposalState `json:"state"`
	VoteStart time.Time         `json:"vote_start"`
	VoteEnd   time.Time         `json:"vote_end"`
}

type StateResponse struct {
	ID    uint64            `json:"id"`
	State dao.ProposalState `json:"state"`
}

type ProposeResponse struct {
	ID uint64 `json:"id"`
}

// Status maps a governance error to the http status it is reported with
func Status(err error) int {
	var aerr *dispatch.ActionError

	switch {
	case errors.Is(err, dao.ErrNoActions),
		errors.Is(err, dao.ErrArityMismatch),
		errors.Is(err, dao.ErrInvalidAmount),
		errors.Is(err, dao.ErrInvalidAddress),
		errors.Is(err, dao.ErrOverflow):
		return http.StatusBadRequest
	case errors.Is(err, dao.ErrInsufficientFee),
		errors.Is(err, dao.ErrAlreadyMember),
		errors.Is(err, dao.ErrNotMember),
		errors.Is(err, dao.ErrInsufficientVotingBalance),
		errors.Is(err, dao.ErrInsufficientBalance),
		errors.Is(err, dao.ErrDelegationCycle):
		return http.StatusForbidden
	case errors.Is(err, dao.ErrUnknownProposal):
		return http.StatusNotFound
	case errors.Is(err, dao.ErrProposalPending),
		errors.Is(err, dao.ErrProposalActive),
		errors.Is(err, dao.ErrVotingClosed),
		errors.Is(err, dao.ErrAlreadyVoted),
		errors.Is(err, dao.ErrAlreadyExecuted),
		errors.Is(err, dao.ErrProposalDefeated):
		return http.StatusConflict
	case errors.As(err, &aerr),
		errors.Is(err, dao.ErrCallFailed),
		errors.Is(err, dao.ErrInsufficientTreasury):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		sentry.CaptureException(err)
	}

	com.Error(w, err.Error(), status)
}

func parseID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (s *Service) Join(w http.ResponseWriter, r *http.Request) {
	caller, ok := dao.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req JoinRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	payment, err := com.ParseAmount(req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.g.Join(r.Context(), caller, payment)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, s.memberResponse(caller), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetMember(w http.ResponseWriter, r *http.Request) {
	addr, err := com.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, s.memberResponse(addr), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetMembers(w http.ResponseWriter, r *http.Request) {
	err := com.BodyMultiple(w, s.g.Members(), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) memberResponse(addr common.Address) *MemberResponse {
	return &MemberResponse{
		Member:           s.g.Member(addr),
		VotingBalance:    s.g.VotingBalance(addr),
		LatestProposalID: s.g.LatestProposalID(addr),
	}
}

func (s *Service) Delegate(w http.ResponseWriter, r *http.Request) {
	caller, ok := dao.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req DelegateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	target, err := com.ParseAddress(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.g.Delegate(r.Context(), caller, target)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, s.memberResponse(caller), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) Propose(w http.ResponseWriter, r *http.Request) {
	caller, ok := dao.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req ProposeRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	actions := dao.Actions{
		Targets:    make([]common.Address, len(req.Targets)),
		Values:     make([]*big.Int, len(req.Values)),
		Signatures: req.Signatures,
		Calldatas:  req.Calldatas,
	}

	for i, t := range req.Targets {
		actions.Targets[i], err = com.ParseAddress(t)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	for i, v := range req.Values {
		actions.Values[i], err = com.ParseAmount(v)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	id, err := s.g.Propose(r.Context(), caller, actions, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, &ProposeResponse{ID: id}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p, state, err := s.g.Proposal(id)
	if err != nil {
		writeError(w, err)
		return
	}

	params := s.g.Params()

	err = com.Body(w, &ProposalResponse{
		Proposal:  p,
		State:     state,
		VoteStart: lifecycle.VotingStart(p, params),
		VoteEnd:   lifecycle.VotingEnd(p, params),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetState(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	state, err := s.g.State(id)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, &StateResponse{ID: id, State: state}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) CastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := dao.GetAddressFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req VoteRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	receipt, err := s.g.CastVote(r.Context(), caller, id, req.Support)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, receipt, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	voter, err := com.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.g.Receipt(id, voter)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, receipt, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Execute can be triggered by anyone once a proposal succeeded, the signature only identifies who asked
func (s *Service) Execute(w http.ResponseWriter, r *http.Request) {
	if _, ok := dao.GetAddressFromContext(r.Context()); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = s.g.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := s.g.State(id)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, &StateResponse{ID: id, State: state}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetTreasury(w http.ResponseWriter, r *http.Request) {
	err := com.Body(w, s.g.Treasury(), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
