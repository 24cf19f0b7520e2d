package common

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidCalldata  = errors.New("invalid calldata")
	ErrInvalidSignature = errors.New("invalid function signature")
)

// Selector returns the first 4 bytes of the keccak256 of a canonical function signature, e.g. mint(address)
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// ParseSignature splits a function signature into its name and argument types
func ParseSignature(signature string) (string, abi.Arguments, error) {
	open := strings.Index(signature, "(")
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidSignature, signature)
	}

	name := signature[:open]
	inner := signature[open+1 : len(signature)-1]

	args := abi.Arguments{}
	if inner == "" {
		return name, args, nil
	}

	for _, ts := range strings.Split(inner, ",") {
		typ, err := abi.NewType(strings.TrimSpace(ts), "", nil)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidSignature, signature, err)
		}

		args = append(args, abi.Argument{Type: typ})
	}

	return name, args, nil
}

// EncodeCall builds the calldata calling signature with args, args must already be of the Go types the abi package expects
func EncodeCall(signature string, args ...interface{}) ([]byte, error) {
	_, inputs, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}

	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidCalldata, signature, len(inputs), len(args))
	}

	packed, err := inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalldata, err)
	}

	return append(Selector(canonical(signature, inputs)), packed...), nil
}

// EncodeCallStrings is EncodeCall with arguments given as text, as they come from a command line
func EncodeCallStrings(signature string, raw ...string) ([]byte, error) {
	_, inputs, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}

	if len(inputs) != len(raw) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidCalldata, signature, len(inputs), len(raw))
	}

	args := make([]interface{}, len(raw))
	for i, s := range raw {
		args[i], err = parseArg(inputs[i].Type, s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}

	return EncodeCall(signature, args...)
}

func canonical(signature string, inputs abi.Arguments) string {
	name := signature[:strings.Index(signature, "(")]

	types := make([]string, len(inputs))
	for i, in := range inputs {
		types[i] = in.Type.String()
	}

	return fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
}

func parseArg(typ abi.Type, s string) (interface{}, error) {
	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCalldata, s)
		}
		return common.HexToAddress(s), nil
	case abi.UintTy, abi.IntTy:
		n, ok := math.ParseBig256(s)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCalldata, s)
		}
		bits := typ.Size
		if typ.T == abi.IntTy {
			bits--
		}
		if n.BitLen() > bits {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrInvalidCalldata, s, typ.String())
		}
		return nativeInt(typ, n), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return common.FromHex(s), nil
	default:
		return nil, fmt.Errorf("%w: unsupported argument type %s", ErrInvalidCalldata, typ.String())
	}
}

// the abi package wants native integers for the sizes Go has, n must already fit
func nativeInt(typ abi.Type, n *big.Int) interface{} {
	if typ.T == abi.UintTy {
		v := n.Uint64()
		switch typ.Size {
		case 8:
			return uint8(v)
		case 16:
			return uint16(v)
		case 32:
			return uint32(v)
		case 64:
			return v
		}
		return n
	}

	v := n.Int64()
	switch typ.Size {
	case 8:
		return int8(v)
	case 16:
		return int16(v)
	case 32:
		return int32(v)
	case 64:
		return v
	}
	return n
}
