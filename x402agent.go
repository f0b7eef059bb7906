// Package x402agent implements the buyer side of the x402 payment protocol:
// a client that turns a 402 Payment Required response into a signed,
// budget-checked, retried request on behalf of an automated agent.
package x402agent

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/logger"
	"github.com/vitwit/x402-agent/metrics"
	"github.com/vitwit/x402-agent/types"
	"github.com/vitwit/x402-agent/wallet"
)

// State labels the outcome of a negotiation. Every Fetch ends in exactly
// one terminal state; the single non-terminal value is what Quote reports
// when the server demanded payment and the quote decoded.
type State string

const (
	StateNegotiating State = "negotiating"

	// Terminal states.
	StateDone             State = "done"              // no payment was needed
	StateSettled          State = "settled"           // paid and received
	StateNetworkRejected  State = "network_rejected"  // no usable alternative
	StatePriceRejected    State = "price_rejected"    // caller ceiling exceeded
	StateBudgetRejected   State = "budget_rejected"   // wallet budget exhausted
	StateSettlementFailed State = "settlement_failed" // paid retry did not succeed
	StateLedgerRaceLoss   State = "ledger_race_loss"  // paid, bookkeeping lost the race
	StateFailed           State = "failed"            // malformed quote or signing error
)

// Request describes one HTTP request the client performs on behalf of the
// caller. Every recognized field is enumerated here; nothing else is
// forwarded.
type Request struct {
	URL     string
	Method  string
	Body    string
	Headers map[string]string

	// MaxPriceUSD is a per-request hard price ceiling. It is checked
	// before the wallet budget: a caller-imposed limit wins regardless of
	// remaining budget. Nil means no per-request ceiling beyond the
	// client-wide default.
	MaxPriceUSD *decimal.Decimal
}

// Result is the terminal outcome of a negotiation.
type Result struct {
	State      State
	StatusCode int
	Body       string

	// Paid is true when money left the wallet, including the race-loss
	// case.
	Paid bool

	// Payment is the ledger record of the payment, when one was made.
	Payment *wallet.PaymentRecord

	// Receipt is the server's settlement acknowledgement, when sent.
	Receipt *types.SettlementReceipt
}

// Succeeded reports whether the caller got the resource body. The
// race-loss state still delivered the resource and the payment is final,
// so it counts as success; the inconsistency is surfaced via State.
func (r *Result) Succeeded() bool {
	switch r.State {
	case StateDone, StateSettled, StateLedgerRaceLoss:
		return true
	}
	return false
}

// Client negotiates x402 payments for a wallet. It borrows the wallet per
// call and keeps no per-request state of its own, so any number of
// negotiations may run concurrently.
type Client struct {
	wallet  *wallet.Wallet
	http    *http.Client
	timeout time.Duration

	// maxPriceUSD is the client-wide default ceiling, overridable per
	// request.
	maxPriceUSD *decimal.Decimal

	log     logger.Logger
	metrics metrics.Recorder
}

const defaultAttemptTimeout = 30 * time.Second

// New creates a negotiating client for the given wallet.
func New(w *wallet.Wallet, opts ...Option) *Client {
	c := &Client{
		wallet:  w,
		http:    &http.Client{},
		timeout: defaultAttemptTimeout,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wallet returns the wallet the client negotiates for.
func (c *Client) Wallet() *wallet.Wallet {
	return c.wallet
}
