// Package wallet holds the buyer's signing key, its spending budget and the
// EIP-3009 authorization signer. One wallet is one budget scope: it only
// ever spends on the network it was constructed with.
package wallet

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/types"
	"github.com/vitwit/x402-agent/utils"
)

// Config is the wallet construction surface. The private key is consumed at
// construction and never exposed afterwards; only the derived address and
// signatures are observable.
type Config struct {
	// PrivateKey is the hex-encoded secp256k1 key, with or without 0x.
	PrivateKey string

	// Network is a canonical CAIP-2 identifier or a legacy alias.
	Network string

	// BudgetUSD is the hard spending cap of the owned ledger.
	BudgetUSD decimal.Decimal

	// Registry overrides the chain table; nil means the default registry.
	Registry *types.Registry
}

// Wallet owns a signing key, the network it is bound to, and its budget
// ledger. Safe for concurrent use: all mutable state lives in the ledger.
type Wallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	chain    *types.ChainParams
	registry *types.Registry
	ledger   *BudgetLedger
}

// New builds a wallet from cfg. The network must resolve via the registry;
// there is no default network.
func New(cfg Config) (*Wallet, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = types.DefaultRegistry()
	}

	chain, err := registry.Resolve(cfg.Network)
	if err != nil {
		return nil, err
	}

	key, err := utils.PrivateKeyFromHex(cfg.PrivateKey)
	if err != nil {
		return nil, types.NewError(types.ErrConfigError, "invalid wallet private key")
	}

	return &Wallet{
		key:      key,
		address:  utils.AddressFromPrivateKey(key),
		chain:    chain,
		registry: registry,
		ledger:   NewBudgetLedger(cfg.BudgetUSD),
	}, nil
}

// Address returns the address derived from the wallet key.
func (w *Wallet) Address() common.Address {
	return w.address
}

// Network returns the chain the wallet is bound to.
func (w *Wallet) Network() *types.ChainParams {
	return w.chain
}

// Ledger returns the wallet's budget ledger.
func (w *Wallet) Ledger() *BudgetLedger {
	return w.ledger
}

// Registry returns the chain table the wallet resolves networks against.
func (w *Wallet) Registry() *types.Registry {
	return w.registry
}

// UnitsToUSD converts atomic token units to USD using the token decimals of
// the wallet's network.
func (w *Wallet) UnitsToUSD(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -w.chain.TokenDecimals)
}

// USDToUnits converts a USD amount to atomic token units, truncating any
// precision beyond the token decimals.
func (w *Wallet) USDToUnits(usd decimal.Decimal) *big.Int {
	return usd.Shift(w.chain.TokenDecimals).Truncate(0).BigInt()
}

// WalletSummary reports the observable wallet state.
type WalletSummary struct {
	Address string          `json:"address"`
	Network types.NetworkId `json:"network"`
	Budget  Summary         `json:"budget"`
}

// Summary returns the wallet address, network and budget snapshot.
func (w *Wallet) Summary() WalletSummary {
	return WalletSummary{
		Address: w.address.Hex(),
		Network: w.chain.Canonical,
		Budget:  w.ledger.Summary(),
	}
}
