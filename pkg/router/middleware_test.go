package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignatureVerification(t *testing.T) {
	// generate a key pair
	k, err := crypto.GenerateKey()
	require.NoError(t, err)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	addr := crypto.PubkeyToAddress(k.PublicKey)

	t.Run("valid", func(t *testing.T) {
		body, sig, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{"support":true}`), time.Minute)
		require.NoError(t, err)

		h, ok := verifySignature(*body, addr, sig)
		require.True(t, ok)
		require.NotEqual(t, common.Hash{}, h)
	})

	t.Run("wrong signer", func(t *testing.T) {
		body, sig, err := SignBody(other, http.MethodPost, "/dao/proposals/1/votes", []byte(`{"support":true}`), time.Minute)
		require.NoError(t, err)

		_, ok := verifySignature(*body, addr, sig)
		require.False(t, ok)
	})

	t.Run("tampered", func(t *testing.T) {
		body, sig, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{"support":true}`), time.Minute)
		require.NoError(t, err)

		body.Data = []byte(`{"support":false}`)
		_, ok := verifySignature(*body, addr, sig)
		require.False(t, ok)
	})

	t.Run("rebound to another proposal", func(t *testing.T) {
		body, sig, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{"support":true}`), time.Minute)
		require.NoError(t, err)

		body.Path = "/dao/proposals/2/votes"
		_, ok := verifySignature(*body, addr, sig)
		require.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		body, sig, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{}`), -time.Minute)
		require.NoError(t, err)

		_, ok := verifySignature(*body, addr, sig)
		require.False(t, ok)
	})

	t.Run("legacy version", func(t *testing.T) {
		body, _, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{}`), time.Minute)
		require.NoError(t, err)

		body.Version = 0
		b, err := json.Marshal(body)
		require.NoError(t, err)

		sig, err := crypto.Sign(crypto.Keccak256(b), k)
		require.NoError(t, err)

		_, ok := verifySignature(*body, addr, compactSignature(sig))
		require.False(t, ok)
	})

	t.Run("malformed signature", func(t *testing.T) {
		body, _, err := SignBody(k, http.MethodPost, "/dao/proposals/1/votes", []byte(`{}`), time.Minute)
		require.NoError(t, err)

		_, ok := verifySignature(*body, addr, "0x1234")
		require.False(t, ok)
	})
}

func TestWithSignature(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)

	addr := crypto.PubkeyToAddress(k.PublicKey)

	h := newSignedRequests().withSignature(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := dao.GetAddressFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, addr, caller)

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, `{"target":"x"}`, string(b))

		w.WriteHeader(http.StatusTeapot)
	})

	body, sig, err := SignBody(k, http.MethodPost, "/dao/delegate", []byte(`{"target":"x"}`), time.Minute)
	require.NoError(t, err)

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/dao/delegate", bytes.NewReader(b))
	req.Header.Set(dao.SignatureHeader, sig)
	req.Header.Set(dao.AddressHeader, addr.Hex())

	rr := httptest.NewRecorder()
	h(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	// missing headers never reach the handler
	req = httptest.NewRequest(http.MethodPost, "/dao/delegate", bytes.NewReader(b))
	rr = httptest.NewRecorder()
	h(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// an accepted envelope is spent
	req = httptest.NewRequest(http.MethodPost, "/dao/delegate", bytes.NewReader(b))
	req.Header.Set(dao.SignatureHeader, sig)
	req.Header.Set(dao.AddressHeader, addr.Hex())

	rr = httptest.NewRecorder()
	h(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// the envelope names the route it may be used on
	cases := []struct {
		name   string
		method string
		path   string
	}{
		{"other path", http.MethodPost, "/dao/proposals/2/votes"},
		{"other method", http.MethodPut, "/dao/delegate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, sig, err := SignBody(k, http.MethodPost, "/dao/delegate", []byte(`{"target":"x"}`), time.Minute)
			require.NoError(t, err)

			b, err := json.Marshal(body)
			require.NoError(t, err)

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(b))
			req.Header.Set(dao.SignatureHeader, sig)
			req.Header.Set(dao.AddressHeader, addr.Hex())

			rr := httptest.NewRecorder()
			h(rr, req)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestSignedRequestsSpend(t *testing.T) {
	s := newSignedRequests()

	now := time.Now().UTC().Unix()
	a, b := common.HexToHash("0x01"), common.HexToHash("0x02")

	require.True(t, s.spend(a, now+60))
	require.False(t, s.spend(a, now+60))
	require.True(t, s.spend(b, now+60))

	// expired envelopes are forgotten
	require.True(t, s.spend(common.HexToHash("0x03"), now-1))
	require.True(t, s.spend(common.HexToHash("0x04"), now+60))
	require.Len(t, s.seen, 3)
}
