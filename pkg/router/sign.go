package router

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// SignBody wraps data in an envelope bound to method and path that expires after ttl and returns it along with its signature
func SignBody(key *ecdsa.PrivateKey, method, path string, data []byte, ttl time.Duration) (*SignedBody, string, error) {
	body := &SignedBody{
		Method:   method,
		Path:     path,
		Nonce:    uuid.NewString(),
		Data:     data,
		Encoding: BodyEncodingBase64,
		Expiry:   time.Now().UTC().Add(ttl).Unix(),
		Version:  SignatureVersion,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}

	sig, err := crypto.Sign(crypto.Keccak256(b), key)
	if err != nil {
		return nil, "", err
	}

	return body, compactSignature(sig), nil
}

// compactSignature gets the v, r, and s values and compacts them into a 65 byte array
// 0x - padding
// v - 1 byte
// r - 32 bytes
// s - 32 bytes
func compactSignature(sig []byte) string {
	rsig := make([]byte, 65)

	// v is the last byte of the signature plus 27
	integer := big.NewInt(0).SetBytes(sig[64:65]).Uint64()

	rsig[0] = byte(integer + 27)
	copy(rsig[1:33], sig[0:32])
	copy(rsig[33:65], sig[32:64])

	return hexutil.Encode(rsig)
}
