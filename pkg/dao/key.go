package dao

import (
	"crypto/ecdsa"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateHexPrivateKey generates a new member key and returns it hex encoded with its address
func GenerateHexPrivateKey() (string, string, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}

	// Convert the private key to bytes
	privateKeyBytes := crypto.FromECDSA(pk)

	return hex.EncodeToString(privateKeyBytes), crypto.PubkeyToAddress(pk.PublicKey).Hex(), nil
}

// HexToPrivateKey parses a hex encoded private key, with or without 0x prefix
func HexToPrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	if len(privateKeyHex) > 2 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}

	return crypto.HexToECDSA(privateKeyHex)
}
