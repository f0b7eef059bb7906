package wallet

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/types"
)

// PaymentRecord is one payment made by the wallet. Records are append-only;
// the only way to drop them is an explicit Reset.
type PaymentRecord struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	ResourceURL string          `json:"resourceUrl"`
	ToAddress   string          `json:"toAddress"`
	AmountUSD   decimal.Decimal `json:"amountUsd"`
	AmountUnits string          `json:"amountUnits"`
	Network     types.NetworkId `json:"network"`
	Nonce       string          `json:"nonce"`
	Signature   string          `json:"signature"`
}

// Summary is a read-only snapshot of a ledger.
type Summary struct {
	CapUSD       decimal.Decimal `json:"capUsd"`
	SpentUSD     decimal.Decimal `json:"spentUsd"`
	RemainingUSD decimal.Decimal `json:"remainingUsd"`
	Count        int             `json:"count"`
}

// BudgetLedger enforces a hard USD spending cap across concurrent payment
// attempts. The invariant 0 <= spent <= cap holds at all times; the check
// and the commit of a spend happen under one lock so two concurrent
// payments can never together exceed the cap.
type BudgetLedger struct {
	mu      sync.Mutex
	capUSD  decimal.Decimal
	spent   decimal.Decimal
	history []PaymentRecord
}

// NewBudgetLedger creates a ledger with the given cap. A negative cap is
// treated as zero.
func NewBudgetLedger(capUSD decimal.Decimal) *BudgetLedger {
	if capUSD.IsNegative() {
		capUSD = decimal.Zero
	}
	return &BudgetLedger{capUSD: capUSD, spent: decimal.Zero}
}

// CanAfford reports whether amount fits in the remaining budget. It is a
// hint only: a concurrent payment may consume the budget between this call
// and ReserveAndCommit, which re-checks internally.
func (l *BudgetLedger) CanAfford(amountUSD decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fits(amountUSD)
}

// ReserveAndCommit atomically verifies affordability, commits the spend and
// appends the record. This is the single correctness-critical primitive of
// the ledger: no concurrent caller observes the state between check and
// commit.
func (l *BudgetLedger) ReserveAndCommit(amountUSD decimal.Decimal, record PaymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.fits(amountUSD) {
		return types.NewError(types.ErrBudgetExceeded,
			fmt.Sprintf("budget exceeded: need $%s, have $%s remaining",
				amountUSD.StringFixed(4), l.capUSD.Sub(l.spent).StringFixed(4)))
	}

	l.spent = l.spent.Add(amountUSD)
	l.history = append(l.history, record)
	return nil
}

// RecordRaceLoss appends a record for a payment that already happened but
// lost the reservation race. Money left the wallet regardless of
// bookkeeping, so history stays accurate; the spent counter saturates at
// the cap to preserve the ledger invariant.
func (l *BudgetLedger) RecordRaceLoss(amountUSD decimal.Decimal, record PaymentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.spent = l.spent.Add(amountUSD)
	if l.spent.GreaterThan(l.capUSD) {
		l.spent = l.capUSD
	}
	l.history = append(l.history, record)
}

// Reset clears the spent amount and the history and installs a new cap.
// Not atomic with in-flight negotiations: callers must make sure none is
// in progress, or accept that a concurrent commit lands on the fresh
// ledger.
func (l *BudgetLedger) Reset(newCapUSD decimal.Decimal) {
	if newCapUSD.IsNegative() {
		newCapUSD = decimal.Zero
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.capUSD = newCapUSD
	l.spent = decimal.Zero
	l.history = nil
}

// Summary returns a consistent snapshot of cap, spent, remaining and
// record count.
func (l *BudgetLedger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Summary{
		CapUSD:       l.capUSD,
		SpentUSD:     l.spent,
		RemainingUSD: l.capUSD.Sub(l.spent),
		Count:        len(l.history),
	}
}

// History returns a copy of the payment records in commit order.
func (l *BudgetLedger) History() []PaymentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]PaymentRecord, len(l.history))
	copy(out, l.history)
	return out
}

// fits must be called with the lock held.
func (l *BudgetLedger) fits(amountUSD decimal.Decimal) bool {
	if amountUSD.IsNegative() {
		return false
	}
	return l.spent.Add(amountUSD).LessThanOrEqual(l.capUSD)
}
