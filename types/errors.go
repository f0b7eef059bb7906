package types

import "errors"

// Error codes surfaced by the negotiation engine. Each terminal failure
// keeps its own code so a caller can decide to raise its offer, switch
// networks, or give up; none are collapsed into a generic failure.
const (
	// -----------------------------
	// NETWORK / QUOTE
	// -----------------------------
	ErrUnsupportedNetwork = "unsupported_network"
	ErrMalformedPayload   = "malformed_402_payload"
	ErrNoMatchingNetwork  = "no_matching_network"

	// -----------------------------
	// LIMITS
	// -----------------------------
	ErrPriceExceedsLimit = "price_exceeds_limit"
	ErrBudgetExceeded    = "budget_exceeded"

	// -----------------------------
	// SIGNING / SETTLEMENT
	// -----------------------------
	ErrSigningFailure   = "signing_failure"
	ErrSettlementFailed = "settlement_failed"

	// Paid and received the resource, but the ledger could not reserve the
	// amount because a concurrent payment consumed the remaining budget.
	ErrLedgerRaceLoss = "ledger_race_loss"

	// -----------------------------
	// CONFIG / TRANSPORT
	// -----------------------------
	ErrConfigError  = "config_error"
	ErrNetworkError = "network_error"
)

// X402Error is the error type returned across the package boundary.
type X402Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *X402Error) Error() string {
	return e.Message
}

// NewError builds an X402Error with the given code and message.
func NewError(code, message string) *X402Error {
	return &X402Error{Code: code, Message: message}
}

// ErrorCode extracts the x402 error code from err, or "" if err is not
// an X402Error.
func ErrorCode(err error) string {
	var xe *X402Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}

// IsCode reports whether err carries the given x402 error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
