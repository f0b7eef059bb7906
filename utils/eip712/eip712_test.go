package eip712

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = Domain{
	Name:              "USD Coin",
	Version:           "2",
	ChainId:           "84532",
	VerifyingContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
}

const (
	testFrom = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTo   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestTransferAuthorizationDigest_Deterministic(t *testing.T) {
	nonce := "0xf408d6d1f1d1bca7c6396ed30f00a46ca4e5b073fff983e42b348776a5aa651c"

	d1, err := TransferAuthorizationDigest(testDomain, testFrom, testTo, "10000", "0", "1900000000", nonce)
	require.NoError(t, err)
	d2, err := TransferAuthorizationDigest(testDomain, testFrom, testTo, "10000", "0", "1900000000", nonce)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	// Any change to the bound tuple changes the digest.
	d3, err := TransferAuthorizationDigest(testDomain, testFrom, testTo, "10001", "0", "1900000000", nonce)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	otherDomain := testDomain
	otherDomain.ChainId = "8453"
	d4, err := TransferAuthorizationDigest(otherDomain, testFrom, testTo, "10000", "0", "1900000000", nonce)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d4)
}

func TestTransferAuthorizationDigest_RejectsBadInput(t *testing.T) {
	_, err := TransferAuthorizationDigest(testDomain, testFrom, testTo, "not-a-number", "0", "1900000000", "0x01")
	assert.Error(t, err)

	_, err = TransferAuthorizationDigest(Domain{}, testFrom, testTo, "10000", "0", "1900000000", "0x01")
	assert.Error(t, err)

	_, err = TransferAuthorizationDigest(testDomain, testFrom, testTo, "10000", "0", "1900000000", "zz")
	assert.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	digest, err := TransferAuthorizationDigest(testDomain, signer.Hex(), testTo, "10000", "0", "1900000000", "0x01")
	require.NoError(t, err)

	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)

	// V normalized to 27/28 recovers the same signer.
	sig[64] += 27
	recovered, err = RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)
}

func TestRecoverSigner_RejectsShortSignature(t *testing.T) {
	digest, err := TransferAuthorizationDigest(testDomain, testFrom, testTo, "10000", "0", "1900000000", "0x01")
	require.NoError(t, err)

	_, err = RecoverSigner(digest, hexutil.MustDecode("0xdeadbeef"))
	assert.Error(t, err)
}

func TestHexToBytes32(t *testing.T) {
	b, err := HexToBytes32("0x01")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b[31])

	_, err = HexToBytes32("0x0101010101010101010101010101010101010101010101010101010101010101ff")
	assert.Error(t, err, "longer than 32 bytes must be rejected")
}
