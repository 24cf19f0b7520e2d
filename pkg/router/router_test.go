package router

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citizenwallet/dao/internal/collectible"
	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/internal/governance"
	"github.com/citizenwallet/dao/internal/governor"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/citizenwallet/dao/pkg/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-key"

var (
	daoAddr = common.HexToAddress("0x68b1d87f95878fe05b998f19b66f4baba5de1aed")
	nftAddr = common.HexToAddress("0x3aa5ebb10dc797cac828524e59a333d0a371443c")
)

type envelope struct {
	ResponseType string          `json:"response_type"`
	Object       json.RawMessage `json:"object"`
	Array        json.RawMessage `json:"array"`
	Error        string          `json:"error"`
}

type api struct {
	t       *testing.T
	handler http.Handler
	clock   *dao.ManualClock
	g       *governor.Governor
}

func newAPI(t *testing.T) *api {
	clock := dao.NewManualClock(time.Date(2023, 11, 2, 12, 0, 0, 0, time.UTC))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	g, err := governor.New(daoAddr, dao.DefaultParams(), clock, governor.WithNotifier(m))
	require.NoError(t, err)

	nft, err := collectible.New(nil)
	require.NoError(t, err)
	g.Deploy(nftAddr, nft)

	return &api{t, NewServer(apiKey, g, m, reg).Handler(), clock, g}
}

func (a *api) do(req *http.Request) (int, envelope) {
	req.Header.Set("Authorization", "Bearer "+apiKey)

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rr.Body.Bytes(), &env))
	}

	return rr.Code, env
}

func (a *api) get(path string) (int, envelope) {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *api) post(key *ecdsa.PrivateKey, path string, payload any) (int, envelope) {
	b, sig := a.sign(key, path, payload)

	return a.send(crypto.PubkeyToAddress(key.PublicKey), path, b, sig)
}

// sign returns a signed envelope for a POST to path and its signature
func (a *api) sign(key *ecdsa.PrivateKey, path string, payload any) ([]byte, string) {
	data, err := json.Marshal(payload)
	require.NoError(a.t, err)

	body, sig, err := SignBody(key, http.MethodPost, path, data, time.Minute)
	require.NoError(a.t, err)

	b, err := json.Marshal(body)
	require.NoError(a.t, err)

	return b, sig
}

func (a *api) send(from common.Address, path string, b []byte, sig string) (int, envelope) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(dao.SignatureHeader, sig)
	req.Header.Set(dao.AddressHeader, from.Hex())

	return a.do(req)
}

func newKeys(t *testing.T, n int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	return keys
}

func TestAPIRequiresKey(t *testing.T) {
	a := newAPI(t)

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dao/treasury", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// members can only join through the operator holding the api key
	k := newKeys(t, 1)[0]
	b, sig := a.sign(k, "/dao/members", governance.JoinRequest{Payment: dao.Ether(1).String()})

	req := httptest.NewRequest(http.MethodPost, "/dao/members", bytes.NewReader(b))
	req.Header.Set(dao.SignatureHeader, sig)
	req.Header.Set(dao.AddressHeader, crypto.PubkeyToAddress(k.PublicKey).Hex())

	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.False(t, a.g.IsMember(crypto.PubkeyToAddress(k.PublicKey)))

	code, env := a.get("/version")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, fmt.Sprintf(`{"version":%q}`, dao.Version), string(env.Object))
}

func TestAPIGovernanceFlow(t *testing.T) {
	a := newAPI(t)
	keys := newKeys(t, 3)

	for _, k := range keys {
		code, env := a.post(k, "/dao/members", governance.JoinRequest{Payment: dao.Ether(1).String()})
		require.Equal(t, http.StatusOK, code, env.Error)
	}

	// joining twice is refused
	code, env := a.post(keys[0], "/dao/members", governance.JoinRequest{Payment: dao.Ether(1).String()})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, dao.ErrAlreadyMember.Error(), env.Error)

	code, env = a.get("/dao/members")
	require.Equal(t, http.StatusOK, code)
	var members []dao.Member
	require.NoError(t, json.Unmarshal(env.Array, &members))
	require.Len(t, members, 3)

	calldata, err := com.EncodeCall("mint(address)", daoAddr)
	require.NoError(t, err)

	// unequal arity never gets an id
	code, _ = a.post(keys[0], "/dao/proposals", governance.ProposeRequest{
		Targets:    []string{nftAddr.Hex()},
		Values:     []string{},
		Signatures: []string{"-"},
		Calldatas:  []hexutil.Bytes{calldata},
	})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = a.post(keys[0], "/dao/proposals", governance.ProposeRequest{
		Targets:     []string{nftAddr.Hex()},
		Values:      []string{"10"},
		Signatures:  []string{"-"},
		Calldatas:   []hexutil.Bytes{calldata},
		Description: "buy the collectible",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	var created governance.ProposeResponse
	require.NoError(t, json.Unmarshal(env.Object, &created))
	require.Equal(t, uint64(1), created.ID)

	code, env = a.get("/dao/proposals/1/state")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"id":1,"state":"pending"}`, string(env.Object))

	code, _ = a.post(keys[1], "/dao/proposals/1/votes", governance.VoteRequest{Support: true})
	require.Equal(t, http.StatusConflict, code)

	a.clock.Advance(a.g.Params().VotingDelay)

	for _, k := range keys[:2] {
		code, env = a.post(k, "/dao/proposals/1/votes", governance.VoteRequest{Support: true})
		require.Equal(t, http.StatusOK, code, env.Error)
	}

	code, env = a.post(keys[2], "/dao/proposals/1/votes", governance.VoteRequest{Support: false})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.post(keys[2], "/dao/proposals/1/votes", governance.VoteRequest{Support: true})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, dao.ErrAlreadyVoted.Error(), env.Error)

	voter := crypto.PubkeyToAddress(keys[2].PublicKey)
	code, env = a.get("/dao/proposals/1/receipts/" + voter.Hex())
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"has_voted":true,"support":false,"votes":1000000000000000000}`, string(env.Object))

	// executing while voting is open is refused
	code, _ = a.post(keys[0], "/dao/proposals/1/execute", struct{}{})
	require.Equal(t, http.StatusConflict, code)

	a.clock.Advance(a.g.Params().VotingPeriod)

	code, env = a.post(keys[0], "/dao/proposals/1/execute", struct{}{})
	require.Equal(t, http.StatusOK, code, env.Error)
	require.JSONEq(t, `{"id":1,"state":"executed"}`, string(env.Object))

	code, _ = a.post(keys[0], "/dao/proposals/1/execute", struct{}{})
	require.Equal(t, http.StatusConflict, code)

	code, env = a.get("/dao/proposals/1")
	require.Equal(t, http.StatusOK, code)

	var p governance.ProposalResponse
	require.NoError(t, json.Unmarshal(env.Object, &p))
	require.Equal(t, dao.ProposalStateExecuted, p.State)
	require.Equal(t, dao.Ether(2), p.ForVotes)
	require.Equal(t, dao.Ether(1), p.AgainstVotes)

	code, env = a.get("/dao/treasury")
	require.Equal(t, http.StatusOK, code)

	var tv governor.TreasuryView
	require.NoError(t, json.Unmarshal(env.Object, &tv))
	require.Equal(t, new(big.Int).Sub(dao.Ether(3), big.NewInt(10)), tv.Balance)
}

func TestAPIErrors(t *testing.T) {
	a := newAPI(t)
	keys := newKeys(t, 2)

	code, _ := a.get("/dao/proposals/7")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = a.get("/dao/proposals/nope")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = a.get("/dao/members/not-an-address")
	require.Equal(t, http.StatusBadRequest, code)

	code, env := a.post(keys[0], "/dao/members", governance.JoinRequest{Payment: "100"})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, dao.ErrInsufficientFee.Error(), env.Error)

	code, _ = a.post(keys[0], "/dao/delegate", governance.DelegateRequest{Target: crypto.PubkeyToAddress(keys[1].PublicKey).Hex()})
	require.Equal(t, http.StatusForbidden, code)

	// a body signed for one address cannot be replayed by another
	b, sig := a.sign(keys[0], "/dao/proposals/1/votes", governance.VoteRequest{Support: true})

	code, _ = a.send(crypto.PubkeyToAddress(keys[1].PublicKey), "/dao/proposals/1/votes", b, sig)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestAPIRejectsReplayedRequests(t *testing.T) {
	a := newAPI(t)
	keys := newKeys(t, 2)

	for _, k := range keys {
		code, env := a.post(k, "/dao/members", governance.JoinRequest{Payment: dao.Ether(1).String()})
		require.Equal(t, http.StatusOK, code, env.Error)
	}

	calldata, err := com.EncodeCall("mint(address)", daoAddr)
	require.NoError(t, err)

	for _, desc := range []string{"first", "second"} {
		code, env := a.post(keys[0], "/dao/proposals", governance.ProposeRequest{
			Targets:     []string{nftAddr.Hex()},
			Values:      []string{"0"},
			Signatures:  []string{"mint(address)"},
			Calldatas:   []hexutil.Bytes{calldata},
			Description: desc,
		})
		require.Equal(t, http.StatusOK, code, env.Error)
	}

	a.clock.Advance(a.g.Params().VotingDelay)

	voter := crypto.PubkeyToAddress(keys[0].PublicKey)

	b, sig := a.sign(keys[0], "/dao/proposals/1/votes", governance.VoteRequest{Support: true})

	code, env := a.send(voter, "/dao/proposals/1/votes", b, sig)
	require.Equal(t, http.StatusOK, code, env.Error)

	// a ballot signed for proposal 1 does not count on proposal 2
	code, _ = a.send(voter, "/dao/proposals/2/votes", b, sig)
	require.Equal(t, http.StatusUnauthorized, code)

	code, env = a.get("/dao/proposals/2/receipts/" + voter.Hex())
	require.Equal(t, http.StatusOK, code)

	var receipt dao.Receipt
	require.NoError(t, json.Unmarshal(env.Object, &receipt))
	require.False(t, receipt.HasVoted)

	// nor can it be sent twice to the route it was signed for
	code, _ = a.send(voter, "/dao/proposals/1/votes", b, sig)
	require.Equal(t, http.StatusUnauthorized, code)

	// an old delegation cannot undo a newer one
	other := crypto.PubkeyToAddress(keys[1].PublicKey)

	b, sig = a.sign(keys[0], "/dao/delegate", governance.DelegateRequest{Target: other.Hex()})

	code, env = a.send(voter, "/dao/delegate", b, sig)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.post(keys[0], "/dao/delegate", governance.DelegateRequest{Target: voter.Hex()})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = a.send(voter, "/dao/delegate", b, sig)
	require.Equal(t, http.StatusUnauthorized, code)

	code, env = a.get("/dao/members/" + voter.Hex())
	require.Equal(t, http.StatusOK, code)

	var member governance.MemberResponse
	require.NoError(t, json.Unmarshal(env.Object, &member))
	require.Equal(t, voter, member.Delegate)

	// identical requests signed separately are both accepted
	code, _ = a.post(keys[1], "/dao/proposals/2/votes", governance.VoteRequest{Support: true})
	require.Equal(t, http.StatusOK, code)

	code, env = a.post(keys[1], "/dao/proposals/2/votes", governance.VoteRequest{Support: true})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, dao.ErrAlreadyVoted.Error(), env.Error)
}
