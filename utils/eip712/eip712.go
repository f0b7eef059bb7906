// Package eip712 builds EIP-712 digests for EIP-3009
// TransferWithAuthorization messages and recovers their signers.
package eip712

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain is the EIP-712 domain of the token contract being authorized.
type Domain struct {
	Name              string // token name, e.g. "USD Coin"
	Version           string // e.g. "2"
	ChainId           string // decimal string
	VerifyingContract string // hex address "0x..."
}

// Type hashes (keccak256 of the type signature strings).
var (
	transferAuthTypeHash = crypto.Keccak256Hash([]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"))

	// EIP712Domain type string - ordering matters
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
)

// keccak256Words hashes the concatenation of 32-byte words, as abi.encode
// does for the fixed-width fields of EIP-712 struct hashing.
func keccak256Words(parts ...[]byte) common.Hash {
	joined := []byte{}
	for _, p := range parts {
		joined = append(joined, p...)
	}
	return crypto.Keccak256Hash(joined)
}

// padLeft32 returns a 32-byte right-aligned representation of the given big.Int.
func padLeft32(i *big.Int) []byte {
	b := i.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// addressTo32 left-pads an address into 32 bytes.
func addressTo32(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}

func stringToBig(s string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid decimal integer string: %q", s)
	}
	return n, nil
}

// HexToBytes32 converts hex (with or without 0x) to a 32-byte array.
func HexToBytes32(hexStr string) ([32]byte, error) {
	var out [32]byte
	if len(hexStr) >= 2 && hexStr[0:2] == "0x" {
		hexStr = hexStr[2:]
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, err
	}
	if len(b) > 32 {
		return out, errors.New("hex value longer than 32 bytes")
	}
	copy(out[32-len(b):], b)
	return out, nil
}

// DomainSeparator builds the domainSeparator hash per EIP-712:
// keccak256(abi.encode(domainTypeHash, keccak256(name), keccak256(version), chainId, verifyingContract))
func DomainSeparator(d Domain) (common.Hash, error) {
	if d.Name == "" || d.Version == "" || d.ChainId == "" || d.VerifyingContract == "" {
		return common.Hash{}, errors.New("incomplete domain")
	}

	chainId, err := stringToBig(d.ChainId)
	if err != nil {
		return common.Hash{}, err
	}

	return keccak256Words(
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(d.Name)).Bytes(),
		crypto.Keccak256Hash([]byte(d.Version)).Bytes(),
		padLeft32(chainId),
		addressTo32(common.HexToAddress(d.VerifyingContract)),
	), nil
}

// HashTransferAuthorization computes
// keccak256(abi.encode(TRANSFER_WITH_AUTH_TYPEHASH, from, to, value, validAfter, validBefore, nonce)).
func HashTransferAuthorization(from, to common.Address, value, validAfter, validBefore *big.Int, nonce [32]byte) common.Hash {
	return keccak256Words(
		transferAuthTypeHash.Bytes(),
		addressTo32(from),
		addressTo32(to),
		padLeft32(value),
		padLeft32(validAfter),
		padLeft32(validBefore),
		nonce[:],
	)
}

// TypedDataHash returns the final EIP-712 digest to be signed or recovered:
// keccak256("\x19\x01" || domainSeparator || structHash).
func TypedDataHash(domainSeparator, structHash common.Hash) common.Hash {
	prefix := []byte{0x19, 0x01}
	return crypto.Keccak256Hash(append(append(prefix, domainSeparator.Bytes()...), structHash.Bytes()...))
}

// TransferAuthorizationDigest builds the complete EIP-712 digest for an
// EIP-3009 transferWithAuthorization. value/validAfter/validBefore are
// decimal strings, the nonce is hex.
func TransferAuthorizationDigest(domain Domain, fromHex, toHex, valueDec, validAfterDec, validBeforeDec, nonceHex string) (common.Hash, error) {
	domainSep, err := DomainSeparator(domain)
	if err != nil {
		return common.Hash{}, err
	}

	value, err := stringToBig(valueDec)
	if err != nil {
		return common.Hash{}, err
	}
	validAfter, err := stringToBig(validAfterDec)
	if err != nil {
		return common.Hash{}, err
	}
	validBefore, err := stringToBig(validBeforeDec)
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := HexToBytes32(nonceHex)
	if err != nil {
		return common.Hash{}, err
	}

	structHash := HashTransferAuthorization(
		common.HexToAddress(fromHex),
		common.HexToAddress(toHex),
		value, validAfter, validBefore, nonce,
	)
	return TypedDataHash(domainSep, structHash), nil
}

// RecoverSigner recovers the address that signed the given digest.
// sig must be 65 bytes (R||S||V); V may be 0/1 or 27/28.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, errors.New("signature must be 65 bytes")
	}

	// copy to avoid mutating caller slice
	s := make([]byte, 65)
	copy(s, sig)

	// go-ethereum wants the recovery id as 0/1
	if s[64] >= 27 {
		s[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("sig to pub failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
