package collectible

import (
	"embed"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/Collectible.json
var contracts embed.FS

func extractContractABI(jsonFile string) (*abi.ABI, error) {
	contractBytes, err := contracts.ReadFile(jsonFile)
	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err = json.Unmarshal(contractBytes, &m); err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(string(m["abi"])))
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

// ABI returns the interface of the collectible contract
func ABI() (*abi.ABI, error) {
	return extractContractABI("abi/Collectible.json")
}
