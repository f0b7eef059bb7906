package utils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyFromHex parses a private key from a hex string, with or without
// the 0x prefix.
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	return crypto.HexToECDSA(hexKey)
}

// AddressFromPrivateKey derives the Ethereum address from a private key.
func AddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// SignDigest signs a 32-byte digest and returns the hex-encoded 65-byte
// signature with V normalized to 27/28, the convention EIP-3009 contracts
// expect.
func SignDigest(digest []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return hexutil.Encode(sig), nil
}

// ValidateAddress checks if a string is a valid Ethereum address.
func ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress returns the checksummed form of an address, or "" if the
// input is not an address.
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}
