package dao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// SignatureHeader is the header that contains the signature of the request
	SignatureHeader = "X-Signature"
	// AddressHeader is the header that contains the address of the sender
	AddressHeader = "X-Address"
	// AppVersionHeader is the header that contains the app version of the sender
	AppVersionHeader = "X-App-Version"
)

const Version = "1.0.0"

type ContextKey string

const (
	ContextKeyAddress   ContextKey = AddressHeader
	ContextKeySignature ContextKey = SignatureHeader
)

// GetAddressFromContext returns the verified sender of a request
func GetAddressFromContext(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(ContextKeyAddress).(string)
	if !ok || !common.IsHexAddress(addr) {
		return common.Address{}, false
	}

	return common.HexToAddress(addr), true
}
