package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveCanonical(t *testing.T) {
	r := NewRegistry()

	chain, err := r.Resolve("eip155:8453")
	require.NoError(t, err)
	assert.Equal(t, NetworkId("eip155:8453"), chain.Canonical)
	assert.Equal(t, "8453", chain.ChainID)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", chain.TokenContract)
	assert.Equal(t, int32(6), chain.TokenDecimals)
}

func TestRegistry_AliasResolvesToSameChain(t *testing.T) {
	r := NewRegistry()

	byAlias, err := r.Resolve("base-sepolia")
	require.NoError(t, err)
	byCanonical, err := r.Resolve("eip155:84532")
	require.NoError(t, err)

	assert.Same(t, byCanonical, byAlias, "alias and canonical id must resolve to the identical chain")
	assert.True(t, byAlias.Testnet)
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()

	chain, err := r.Resolve("  Base-Sepolia ")
	require.NoError(t, err)
	assert.Equal(t, NetworkId("eip155:84532"), chain.Canonical)

	chain, err = r.Resolve("EIP155:1")
	require.NoError(t, err)
	assert.Equal(t, NetworkId("eip155:1"), chain.Canonical)
}

func TestRegistry_UnknownNetworkFails(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("solana-mainnet")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrUnsupportedNetwork))

	_, err = r.Resolve("")
	require.Error(t, err)
}

func TestRegistry_Supported(t *testing.T) {
	r := NewRegistry()

	supported := r.Supported()
	assert.Len(t, supported, 5)
	assert.Contains(t, supported, NetworkId("eip155:8453"))
	assert.Contains(t, supported, NetworkId("eip155:5042002"))
}
