package common

import (
	"fmt"
	"strings"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

func IsSameHexAddress(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

func ChecksumAddress(addr string) string {
	address := common.HexToAddress(addr)

	return address.Hex()
}

// ParseAddress is common.HexToAddress that refuses anything that is not a hex address
func ParseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("%w: %q", dao.ErrInvalidAddress, addr)
	}

	return common.HexToAddress(addr), nil
}
