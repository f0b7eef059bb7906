// Package types defines the wire types of the x402 payment protocol as seen
// from the buyer side, the error taxonomy of the negotiation engine, and the
// network registry.
package types

import (
	"fmt"
	"math/big"
	"time"
)

// X402Version represents the version of the x402 protocol.
type X402Version int

const (
	X402Version1 X402Version = 1
)

// PaymentScheme represents different payment schemes.
type PaymentScheme string

const (
	SchemeExact PaymentScheme = "exact"
)

// Header names of the 402 negotiation. Servers in the wild send both the
// X- prefixed and bare forms; the codec accepts either, the client sends
// the X- form.
const (
	HeaderPaymentRequired     = "X-Payment-Required"
	HeaderPaymentRequiredBare = "Payment-Required"
	HeaderPayment             = "X-Payment"
	HeaderPaymentResponse     = "X-Payment-Response"
	HeaderPaymentResponseBare = "Payment-Response"
)

// PaymentRequirements is one payment alternative a resource server accepts,
// as carried in the 402 response. Immutable once decoded.
type PaymentRequirements struct {
	// Scheme of the payment protocol, e.g. "exact". Defaults to "exact".
	Scheme string `json:"scheme,omitempty"`

	// Network the payment must be made on, canonical CAIP-2 or legacy alias.
	Network string `json:"network" validate:"required"`

	// MaxAmountRequired is the price in atomic units of the asset,
	// as a decimal string because Go has no uint256.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required"`

	// Resource is the URL being paid for.
	Resource string `json:"resource,omitempty"`

	// Description of the resource being purchased.
	Description string `json:"description,omitempty"`

	// MimeType of the resource response.
	MimeType string `json:"mimeType,omitempty"`

	// PayTo is the address the payment must be sent to.
	PayTo string `json:"payTo" validate:"required"`

	// ValidUntil is the unix timestamp the quote (and the authorization
	// signed against it) expires at. Optional; see ValidBefore.
	ValidUntil int64 `json:"validUntil,omitempty"`

	// MaxTimeoutSeconds bounds the settlement window when the server does
	// not pin an absolute expiry.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds,omitempty"`

	// Asset is the token contract the payment is denominated in. Optional;
	// when empty the registry's stablecoin contract for the network is used.
	Asset string `json:"asset,omitempty"`

	// Extra carries opaque scheme-specific metadata.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// defaultValidityWindow applies when a quote carries neither an absolute
// expiry nor a timeout.
const defaultValidityWindow = 600 * time.Second

// AmountUnits parses MaxAmountRequired into a big integer.
func (pr *PaymentRequirements) AmountUnits() (*big.Int, error) {
	n, ok := new(big.Int).SetString(pr.MaxAmountRequired, 10)
	if !ok {
		return nil, NewError(ErrMalformedPayload,
			fmt.Sprintf("invalid maxAmountRequired: %q", pr.MaxAmountRequired))
	}
	return n, nil
}

// ValidBefore returns the unix timestamp the authorization must expire at:
// the server-pinned ValidUntil when present, otherwise now plus the quoted
// timeout, otherwise now plus a default window.
func (pr *PaymentRequirements) ValidBefore(now time.Time) int64 {
	if pr.ValidUntil > 0 {
		return pr.ValidUntil
	}
	if pr.MaxTimeoutSeconds > 0 {
		return now.Add(time.Duration(pr.MaxTimeoutSeconds) * time.Second).Unix()
	}
	return now.Add(defaultValidityWindow).Unix()
}

// Validate checks the semantic constraints a decoded requirement must hold:
// a positive amount and an unexpired validity window. Struct-tag validation
// covers field presence. Whether the network is one the buyer can use is
// not a validity question; servers routinely quote alternatives on chains
// a given wallet has no key for, and picking among them is the selector's
// job.
func (pr *PaymentRequirements) Validate(now time.Time) error {
	amount, err := pr.AmountUnits()
	if err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return NewError(ErrMalformedPayload, "maxAmountRequired must be positive")
	}
	if pr.ValidBefore(now) <= now.Unix() {
		return NewError(ErrMalformedPayload, "payment requirement already expired")
	}
	return nil
}

// X402Response is the machine-readable body of a 402: the set of payment
// alternatives the server accepts.
type X402Response struct {
	X402Version int `json:"x402Version"`

	Accepts []PaymentRequirements `json:"accepts"`

	// Error carries a processing message from the resource server.
	Error string `json:"error,omitempty"`
}

// EIP3009Authorization is the TransferWithAuthorization tuple carried in
// the payment header. All numeric fields are decimal strings, the nonce is
// 0x-prefixed hex, matching the on-chain encoding.
type EIP3009Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ExactEvmPayload pairs an authorization with its 65-byte ECDSA signature.
type ExactEvmPayload struct {
	Signature     string               `json:"signature"`
	Authorization EIP3009Authorization `json:"authorization"`
}

// PaymentPayload is the full payment header value before base64 encoding.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     ExactEvmPayload `json:"payload"`
}

// SettlementReceipt is the optional settlement acknowledgement a server
// attaches to a paid response.
type SettlementReceipt struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"txHash,omitempty"`
	NetworkId string `json:"networkId,omitempty"`
	Error     string `json:"error,omitempty"`
}
