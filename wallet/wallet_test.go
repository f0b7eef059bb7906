package wallet

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-agent/types"
)

// Well-known anvil development key; never holds real funds.
const (
	testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func testWallet(t *testing.T, budget float64) *Wallet {
	t.Helper()
	w, err := New(Config{
		PrivateKey: testPrivateKey,
		Network:    "base-sepolia",
		BudgetUSD:  decimal.NewFromFloat(budget),
	})
	require.NoError(t, err)
	return w
}

func TestNew_DerivesAddress(t *testing.T) {
	w := testWallet(t, 10)
	assert.Equal(t, testAddress, w.Address().Hex())
	assert.Equal(t, types.NetworkId("eip155:84532"), w.Network().Canonical)
}

func TestNew_AcceptsPrefixedKey(t *testing.T) {
	w, err := New(Config{
		PrivateKey: "0x" + testPrivateKey,
		Network:    "eip155:84532",
		BudgetUSD:  decimal.NewFromFloat(1),
	})
	require.NoError(t, err)
	assert.Equal(t, testAddress, w.Address().Hex())
}

func TestNew_RejectsBadKey(t *testing.T) {
	_, err := New(Config{
		PrivateKey: "not-a-key",
		Network:    "base-sepolia",
		BudgetUSD:  decimal.NewFromFloat(1),
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrConfigError))
	// The rejected key never appears in the error.
	assert.NotContains(t, err.Error(), "not-a-key")
}

func TestNew_RejectsUnknownNetwork(t *testing.T) {
	_, err := New(Config{
		PrivateKey: testPrivateKey,
		Network:    "solana-devnet",
		BudgetUSD:  decimal.NewFromFloat(1),
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrUnsupportedNetwork))
}

func TestUnitsConversion(t *testing.T) {
	w := testWallet(t, 10)

	// USDC has 6 decimals: 1_000_000 units = $1.00.
	usd := w.UnitsToUSD(big.NewInt(1_000_000))
	assert.True(t, usd.Equal(decimal.NewFromInt(1)))

	usd = w.UnitsToUSD(big.NewInt(10_000))
	assert.True(t, usd.Equal(decimal.NewFromFloat(0.01)))

	units := w.USDToUnits(decimal.NewFromFloat(0.01))
	assert.Equal(t, int64(10_000), units.Int64())

	// Precision beyond the token decimals truncates.
	units = w.USDToUnits(decimal.RequireFromString("0.0000001"))
	assert.Equal(t, int64(0), units.Int64())
}

func TestWalletSummary(t *testing.T) {
	w := testWallet(t, 10)

	summary := w.Summary()
	assert.Equal(t, testAddress, summary.Address)
	assert.Equal(t, types.NetworkId("eip155:84532"), summary.Network)
	assert.True(t, summary.Budget.CapUSD.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 0, summary.Budget.Count)
}
