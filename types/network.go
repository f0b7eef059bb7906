package types

import (
	"fmt"
	"strings"
)

// NetworkId is the canonical CAIP-2 identifier of a chain, e.g. "eip155:8453".
type NetworkId string

func (n NetworkId) String() string {
	return string(n)
}

// ChainParams holds everything the payment path needs to know about a chain:
// the chain id and the stablecoin contract the authorization is signed against.
// All chain-specific constants live here; no other package hardcodes them.
type ChainParams struct {
	Canonical NetworkId

	// ChainID as a decimal string, matching EIP-712 domain encoding.
	ChainID string

	// TokenContract is the EIP-3009 capable stablecoin contract address.
	TokenContract string

	// TokenDecimals is the number of decimals of the token (6 for USDC).
	TokenDecimals int32

	// TokenName and TokenVersion feed the EIP-712 domain separator.
	TokenName    string
	TokenVersion string

	// Aliases are legacy textual names still accepted on input.
	Aliases []string

	Testnet bool
}

// Registry resolves network identifiers, canonical or legacy, to ChainParams.
// Lookup is case-insensitive and O(1). The table is fixed at construction;
// adding a chain is a table edit.
type Registry struct {
	byID map[string]*ChainParams
}

var defaultChains = []ChainParams{
	{
		Canonical:     "eip155:8453",
		ChainID:       "8453",
		TokenContract: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		TokenDecimals: 6,
		TokenName:     "USD Coin",
		TokenVersion:  "2",
		Aliases:       []string{"base-mainnet", "base"},
	},
	{
		Canonical:     "eip155:84532",
		ChainID:       "84532",
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		TokenDecimals: 6,
		TokenName:     "USD Coin",
		TokenVersion:  "2",
		Aliases:       []string{"base-sepolia"},
		Testnet:       true,
	},
	{
		Canonical:     "eip155:1",
		ChainID:       "1",
		TokenContract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		TokenDecimals: 6,
		TokenName:     "USD Coin",
		TokenVersion:  "2",
		Aliases:       []string{"ethereum-mainnet"},
	},
	{
		Canonical:     "eip155:11155111",
		ChainID:       "11155111",
		TokenContract: "0x1c7D4B196Cb0C7B01d064914d0da28F12c7d0b86",
		TokenDecimals: 6,
		TokenName:     "USD Coin",
		TokenVersion:  "2",
		Aliases:       []string{"ethereum-sepolia"},
		Testnet:       true,
	},
	{
		Canonical:     "eip155:5042002",
		ChainID:       "5042002",
		TokenContract: "0x3600000000000000000000000000000000000000",
		TokenDecimals: 6,
		TokenName:     "USD Coin",
		TokenVersion:  "2",
		Aliases:       []string{"arc-testnet"},
		Testnet:       true,
	},
}

// NewRegistry builds a registry over the built-in chain table.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]*ChainParams, len(defaultChains)*3)}
	for i := range defaultChains {
		c := &defaultChains[i]
		r.byID[normalizeIdentifier(string(c.Canonical))] = c
		for _, alias := range c.Aliases {
			r.byID[normalizeIdentifier(alias)] = c
		}
	}
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry over the built-in table.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Resolve maps a canonical CAIP-2 identifier or a legacy alias to its
// ChainParams. Unknown identifiers fail with ErrUnsupportedNetwork; there
// is no silent default.
func (r *Registry) Resolve(identifier string) (*ChainParams, error) {
	if c, ok := r.byID[normalizeIdentifier(identifier)]; ok {
		return c, nil
	}
	return nil, &X402Error{
		Code:    ErrUnsupportedNetwork,
		Message: fmt.Sprintf("unsupported network: %q", identifier),
	}
}

// Supported lists the canonical identifiers the registry knows about.
func (r *Registry) Supported() []NetworkId {
	seen := make(map[NetworkId]struct{}, len(r.byID))
	out := make([]NetworkId, 0, len(r.byID))
	for _, c := range r.byID {
		if _, ok := seen[c.Canonical]; ok {
			continue
		}
		seen[c.Canonical] = struct{}{}
		out = append(out, c.Canonical)
	}
	return out
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
