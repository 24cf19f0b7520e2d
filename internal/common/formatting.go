package common

import (
	"github.com/ethereum/go-ethereum/common"
)

// ShortAddress renders addr as its checksummed prefix and suffix, e.g. 0x480F..9D2f
func ShortAddress(addr common.Address) string {
	h := addr.Hex()

	return h[:6] + ".." + h[len(h)-4:]
}
