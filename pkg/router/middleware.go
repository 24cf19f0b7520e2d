package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
)

var (
	options sync.Map

	allMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodPut,
		http.MethodDelete,
	}

	acceptedHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"X-Requested-With",
		"Accept-Encoding",
		"Authorization",
		dao.SignatureHeader,
		dao.AddressHeader,
		dao.AppVersionHeader,
	}
)

// HealthMiddleware is a middleware that responds to health checks
func HealthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// OptionsMiddleware ensures that we return the correct headers for CORS requests
func OptionsMiddleware(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)

		var path string
		if r.URL.RawPath != "" {
			path = r.URL.RawPath
		} else {
			path = r.URL.Path
		}

		var methodsStr string
		cached, ok := options.Load(path)
		if ok {
			methodsStr = cached.(string)
		} else {
			var methods []string
			for _, method := range allMethods {
				nctx := chi.NewRouteContext()
				if ctx.Routes.Match(nctx, method, path) {
					methods = append(methods, method)
				}
			}

			methods = append(methods, http.MethodOptions)
			methodsStr = strings.Join(methods, ", ")
			options.Store(path, methodsStr)
		}

		// allowed methods
		w.Header().Set("Allow", methodsStr)

		// allowed methods for CORS
		w.Header().Set("Access-Control-Allow-Methods", methodsStr)

		// allowed origins
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// allowed headers
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(acceptedHeaders, ", "))

		// actually handle the request
		if r.Method != http.MethodOptions {
			h.ServeHTTP(w, r)
			return
		}

		// handle OPTIONS requests
		w.WriteHeader(http.StatusOK)
	}

	return http.HandlerFunc(fn)
}

func RequestSizeLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

type BodyEncoding string

const (
	BodyEncodingBase64 BodyEncoding = "base64"
)

// SignatureVersion is the only signed body layout the node accepts
const SignatureVersion = 3

// SignedBody wraps the payload of a mutation, the signature covers the whole envelope
// including the route it was signed for
type SignedBody struct {
	Method   string       `json:"method"`
	Path     string       `json:"path"`
	Nonce    string       `json:"nonce"`
	Data     []byte       `json:"data"`
	Encoding BodyEncoding `json:"encoding"`
	Expiry   int64        `json:"expiry"`
	Version  int          `json:"version"`
}

// signedRequests remembers the envelopes it accepted until they expire so each can only be used once
type signedRequests struct {
	mu   sync.Mutex
	seen map[common.Hash]int64
}

func newSignedRequests() *signedRequests {
	return &signedRequests{
		seen: map[common.Hash]int64{},
	}
}

// spend marks the envelope with the given hash as used, it returns false if it already was
func (s *signedRequests) spend(h common.Hash, expiry int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Unix()
	for k, exp := range s.seen {
		if exp < now {
			delete(s.seen, k)
		}
	}

	if _, ok := s.seen[h]; ok {
		return false
	}

	s.seen[h] = expiry

	return true
}

// withSignature is a middleware that checks the signature of the request against the request headers
func (s *signedRequests) withSignature(h http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// check signature
		signature := r.Header.Get(dao.SignatureHeader)
		if signature == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req SignedBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		// get address
		addr := r.Header.Get(dao.AddressHeader)
		if addr == "" || !common.IsHexAddress(addr) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		haccaddr := common.HexToAddress(addr)

		// the envelope only authorizes the route it was signed for
		if req.Method != r.Method || req.Path != r.URL.Path {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		hash, ok := verifySignature(req, haccaddr, signature)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if !s.spend(hash, req.Expiry) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(strings.NewReader(string(req.Data)))
		r.ContentLength = int64(len(req.Data))

		ctx := context.WithValue(r.Context(), dao.ContextKeyAddress, haccaddr.Hex())
		ctx = context.WithValue(ctx, dao.ContextKeySignature, signature)

		h(w, r.WithContext(ctx))
	})
}

// verifySignature verifies the signature of the request against the entire request body and returns the signed hash
func verifySignature(req SignedBody, addr common.Address, signature string) (common.Hash, bool) {
	if req.Version != SignatureVersion {
		return common.Hash{}, false
	}

	// verify if the signature has expired
	if req.Expiry < time.Now().UTC().Unix() {
		return common.Hash{}, false
	}

	// hash the entire request data
	b, err := json.Marshal(req)
	if err != nil {
		return common.Hash{}, false
	}

	h := crypto.Keccak256Hash(b)

	// decode the signature
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return common.Hash{}, false
	}

	// recover the public key from the signature
	pubkey, _, err := ecdsa.RecoverCompact(sig, h.Bytes())
	if err != nil {
		return common.Hash{}, false
	}

	// derive the address from the public key
	address := crypto.PubkeyToAddress(*pubkey.ToECDSA())

	// the address in the request must match the address derived from the signature
	if address != addr {
		return common.Hash{}, false
	}

	// create ModNScalars from the signature manually
	sr, ss := secp256k1.ModNScalar{}, secp256k1.ModNScalar{}

	// set the byteslices manually from the signature
	sr.SetByteSlice(sig[1:33])
	ss.SetByteSlice(sig[33:65])

	// create a new signature from the ModNScalars
	ns := ecdsa.NewSignature(&sr, &ss)

	// verify the signature
	return h, ns.Verify(h.Bytes(), pubkey)
}
