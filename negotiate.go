package x402agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/types"
	"github.com/vitwit/x402-agent/utils"
	"github.com/vitwit/x402-agent/wallet"
)

// Fetch runs one payment negotiation: it issues the request, and when the
// server answers 402 it decodes the quote, checks it against the caller's
// price ceiling and the wallet budget, signs a transfer authorization and
// retries exactly once with the payment attached. It never loops on
// repeated 402s; every outcome is a distinct terminal state.
//
// The returned Result is non-nil for every terminal state; err is non-nil
// for the failure states and carries a types.X402Error with the specific
// error code.
func (c *Client) Fetch(ctx context.Context, req Request) (*Result, error) {
	if req.URL == "" {
		return nil, types.NewError(types.ErrConfigError, "request url is required")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	network := string(c.wallet.Network().Canonical)

	// INITIAL -> SENT: the original request, unmodified.
	first, err := c.do(ctx, req, "")
	if err != nil {
		return nil, err
	}

	if first.status != http.StatusPaymentRequired {
		// Terminal without payment. The caller inspects the status code.
		c.metrics.IncCounter(string(StateDone), map[string]string{"network": network})
		return &Result{State: StateDone, StatusCode: first.status, Body: first.body}, nil
	}

	// 402 -> NEGOTIATING.
	headerValue := first.header.Get(types.HeaderPaymentRequired)
	if headerValue == "" {
		headerValue = first.header.Get(types.HeaderPaymentRequiredBare)
	}

	now := time.Now()
	accepts, err := utils.DecodePaymentRequired(headerValue, now)
	if err != nil {
		c.metrics.IncCounter(string(StateFailed), map[string]string{"network": network})
		return &Result{State: StateFailed, StatusCode: first.status, Body: first.body}, err
	}

	chosen := c.selectRequirement(accepts)
	if chosen == nil {
		c.metrics.IncCounter(string(StateNetworkRejected), map[string]string{"network": network})
		return &Result{State: StateNetworkRejected, StatusCode: first.status, Body: first.body},
			types.NewError(types.ErrNoMatchingNetwork,
				fmt.Sprintf("no payment alternative on wallet network %s", network))
	}

	units, err := chosen.AmountUnits()
	if err != nil {
		c.metrics.IncCounter(string(StateFailed), map[string]string{"network": network})
		return &Result{State: StateFailed, StatusCode: first.status, Body: first.body}, err
	}
	amountUSD := c.wallet.UnitsToUSD(units)

	// A caller-imposed ceiling is a hard cap regardless of wallet budget;
	// it is checked before the ledger is touched and before the signer
	// is invoked.
	if ceiling := c.priceCeiling(req); ceiling != nil && amountUSD.GreaterThan(*ceiling) {
		c.log.Info("price above caller ceiling", map[string]any{
			"url": req.URL, "price_usd": amountUSD.String(), "ceiling_usd": ceiling.String(),
		})
		c.metrics.IncCounter(string(StatePriceRejected), map[string]string{"network": network})
		return &Result{State: StatePriceRejected, StatusCode: first.status},
			types.NewError(types.ErrPriceExceedsLimit,
				fmt.Sprintf("quoted price $%s exceeds limit $%s",
					amountUSD.StringFixed(4), ceiling.StringFixed(4)))
	}

	if !c.wallet.Ledger().CanAfford(amountUSD) {
		summary := c.wallet.Ledger().Summary()
		c.metrics.IncCounter(string(StateBudgetRejected), map[string]string{"network": network})
		return &Result{State: StateBudgetRejected, StatusCode: first.status},
			types.NewError(types.ErrBudgetExceeded,
				fmt.Sprintf("quoted price $%s exceeds remaining budget $%s",
					amountUSD.StringFixed(4), summary.RemainingUSD.StringFixed(4)))
	}

	// NEGOTIATING -> SIGNED.
	proof, err := c.wallet.SignAuthorization(chosen, now)
	if err != nil {
		c.metrics.IncCounter(string(StateFailed), map[string]string{"network": network})
		return &Result{State: StateFailed, StatusCode: first.status}, err
	}

	scheme := chosen.Scheme
	if scheme == "" {
		scheme = string(types.SchemeExact)
	}
	paymentHeader, err := utils.EncodePaymentHeader(&types.PaymentPayload{
		X402Version: int(types.X402Version1),
		Scheme:      scheme,
		Network:     chosen.Network,
		Payload: types.ExactEvmPayload{
			Signature:     proof.Signature,
			Authorization: proof.Authorization(),
		},
	})
	if err != nil {
		c.metrics.IncCounter(string(StateFailed), map[string]string{"network": network})
		return &Result{State: StateFailed, StatusCode: first.status}, err
	}

	c.log.Info("retrying with payment", map[string]any{
		"url": req.URL, "amount_usd": amountUSD.String(), "pay_to": proof.To,
	})

	// SIGNED -> RETRIED: same URL, method, body and headers, plus the
	// payment header, exactly once.
	second, err := c.do(ctx, req, paymentHeader)
	if err != nil {
		return nil, err
	}

	if second.status < 200 || second.status > 299 {
		c.metrics.IncCounter(string(StateSettlementFailed), map[string]string{"network": network})
		return &Result{State: StateSettlementFailed, StatusCode: second.status, Body: second.body},
			types.NewError(types.ErrSettlementFailed,
				fmt.Sprintf("paid retry failed with status %d", second.status))
	}

	// Money left the wallet: the record is appended no matter what the
	// ledger counter says afterwards.
	record := wallet.PaymentRecord{
		ID:          uuid.NewString(),
		Timestamp:   now,
		ResourceURL: req.URL,
		ToAddress:   proof.To,
		AmountUSD:   amountUSD,
		AmountUnits: proof.Value,
		Network:     c.wallet.Network().Canonical,
		Nonce:       proof.Nonce,
		Signature:   proof.Signature,
	}

	receipt := c.decodeReceipt(second.header)

	if err := c.wallet.Ledger().ReserveAndCommit(amountUSD, record); err != nil {
		// A concurrent payment consumed the remaining budget between the
		// affordability check and the commit. The resource was delivered
		// and the payment is final, so the caller still gets the body;
		// the inconsistency is surfaced through the state.
		c.wallet.Ledger().RecordRaceLoss(amountUSD, record)
		c.log.Error("payment committed past budget", map[string]any{
			"url": req.URL, "amount_usd": amountUSD.String(),
		})
		c.metrics.IncCounter(string(StateLedgerRaceLoss), map[string]string{"network": network})
		return &Result{
			State:      StateLedgerRaceLoss,
			StatusCode: second.status,
			Body:       second.body,
			Paid:       true,
			Payment:    &record,
			Receipt:    receipt,
		}, nil
	}

	c.metrics.IncCounter(string(StateSettled), map[string]string{"network": network})
	return &Result{
		State:      StateSettled,
		StatusCode: second.status,
		Body:       second.body,
		Paid:       true,
		Payment:    &record,
		Receipt:    receipt,
	}, nil
}

// Quote issues the request without paying and returns the server's payment
// alternatives, or nil when the resource does not require payment. Used by
// adapters running with auto-pay disabled.
func (c *Client) Quote(ctx context.Context, req Request) ([]types.PaymentRequirements, *Result, error) {
	if req.URL == "" {
		return nil, nil, types.NewError(types.ErrConfigError, "request url is required")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	first, err := c.do(ctx, req, "")
	if err != nil {
		return nil, nil, err
	}
	if first.status != http.StatusPaymentRequired {
		return nil, &Result{State: StateDone, StatusCode: first.status, Body: first.body}, nil
	}

	headerValue := first.header.Get(types.HeaderPaymentRequired)
	if headerValue == "" {
		headerValue = first.header.Get(types.HeaderPaymentRequiredBare)
	}
	accepts, err := utils.DecodePaymentRequired(headerValue, time.Now())
	if err != nil {
		return nil, &Result{State: StateFailed, StatusCode: first.status}, err
	}
	return accepts, &Result{State: StateNegotiating, StatusCode: first.status}, nil
}

// selectRequirement picks the first alternative on the wallet's network.
// Alternatives on unknown networks are skipped, not fatal.
func (c *Client) selectRequirement(accepts []types.PaymentRequirements) *types.PaymentRequirements {
	for i := range accepts {
		chain, err := c.wallet.Registry().Resolve(accepts[i].Network)
		if err != nil {
			c.log.Debug("skipping alternative on unknown network", map[string]any{
				"network": accepts[i].Network,
			})
			continue
		}
		if chain.Canonical == c.wallet.Network().Canonical {
			return &accepts[i]
		}
	}
	return nil
}

func (c *Client) priceCeiling(req Request) *decimal.Decimal {
	if req.MaxPriceUSD != nil {
		return req.MaxPriceUSD
	}
	return c.maxPriceUSD
}

func (c *Client) decodeReceipt(header http.Header) *types.SettlementReceipt {
	value := header.Get(types.HeaderPaymentResponse)
	if value == "" {
		value = header.Get(types.HeaderPaymentResponseBare)
	}
	receipt, err := utils.DecodeSettlementReceipt(value)
	if err != nil {
		c.log.Warn("unparsable settlement receipt", map[string]any{"error": err.Error()})
		return nil
	}
	if receipt != nil && receipt.TxHash != "" {
		c.log.Info("payment settled", map[string]any{"tx_hash": receipt.TxHash})
	}
	return receipt
}

type attemptResult struct {
	status int
	body   string
	header http.Header
}

// do performs one HTTP attempt with the per-attempt timeout. It holds no
// ledger lock: network I/O never blocks concurrent negotiations.
func (c *Client) do(ctx context.Context, req Request, paymentHeader string) (*attemptResult, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, types.NewError(types.ErrConfigError,
			fmt.Sprintf("invalid request: %v", err))
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if paymentHeader != "" {
		httpReq.Header.Set(types.HeaderPayment, paymentHeader)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError,
			fmt.Sprintf("request to %s failed: %v", req.URL, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError,
			fmt.Sprintf("failed to read response from %s: %v", req.URL, err))
	}

	c.metrics.ObserveLatency("http_attempt", time.Since(start), map[string]string{
		"network": string(c.wallet.Network().Canonical),
	})

	return &attemptResult{
		status: resp.StatusCode,
		body:   string(respBody),
		header: resp.Header,
	}, nil
}
