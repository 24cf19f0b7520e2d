package common

import (
	"fmt"
	"math/big"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common/math"
)

func HexToBigInt(hex string) *big.Int {
	i, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return big.NewInt(0)
	}

	return i
}

// ParseAmount parses a decimal or 0x prefixed hex amount that fits in 256 bits
func ParseAmount(s string) (*big.Int, error) {
	n, ok := math.ParseBig256(s)
	if !ok || s == "" {
		return nil, fmt.Errorf("%w: %q", dao.ErrInvalidAmount, s)
	}

	return n, nil
}

// ParseEther parses a decimal ether amount such as 1.5 into wei
func ParseEther(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", dao.ErrInvalidAmount, s)
	}

	r.Mul(r, new(big.Rat).SetInt(dao.Ether(1)))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than 18 decimals", dao.ErrInvalidAmount, s)
	}

	n := new(big.Int).Set(r.Num())
	if n.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("%w: %q", dao.ErrOverflow, s)
	}

	return n, nil
}
