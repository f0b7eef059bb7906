// Package tool adapts the negotiating client to a host agent framework's
// tool-call contract: a JSON request in, the response body or a structured
// error out. All payment decisions stay in the client; the adapter only
// shapes input and output.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	x402agent "github.com/vitwit/x402-agent"
	"github.com/vitwit/x402-agent/types"
)

var validate = validator.New()

// Request is the tool-call input. Every recognized field is enumerated;
// unknown fields are rejected, not silently accepted.
type Request struct {
	URL     string            `json:"url" validate:"required,url"`
	Method  string            `json:"method,omitempty" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	Body    string            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// MaxPriceUSD caps what this single call may pay.
	MaxPriceUSD *float64 `json:"max_price_usd,omitempty" validate:"omitempty,gt=0"`
}

// ParseRequest decodes and validates a raw tool-call payload.
func ParseRequest(raw []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, types.NewError(types.ErrConfigError,
			fmt.Sprintf("invalid tool input: %v", err))
	}
	if err := validate.Struct(&req); err != nil {
		return nil, types.NewError(types.ErrConfigError,
			fmt.Sprintf("invalid tool input: %v", err))
	}
	return &req, nil
}

// Tool wraps a client for use as an agent tool.
type Tool struct {
	client  *x402agent.Client
	autoPay bool
}

// ToolOption configures a Tool.
type ToolOption func(*Tool)

// WithAutoPay controls whether the tool pays automatically on 402. When
// disabled, a 402 returns the quote to the agent instead of paying.
func WithAutoPay(enabled bool) ToolOption {
	return func(t *Tool) {
		t.autoPay = enabled
	}
}

// New builds a tool over the given client. Auto-pay defaults to on.
func New(client *x402agent.Client, opts ...ToolOption) *Tool {
	t := &Tool{client: client, autoPay: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Invoke parses a raw tool-call payload and executes it.
func (t *Tool) Invoke(ctx context.Context, raw []byte) (string, error) {
	req, err := ParseRequest(raw)
	if err != nil {
		return "", err
	}
	return t.Call(ctx, req)
}

// Call executes a parsed tool request, negotiating payment when needed.
// It returns the final response body; every failure is a types.X402Error
// whose code tells the agent what went wrong.
func (t *Tool) Call(ctx context.Context, req *Request) (string, error) {
	agentReq := x402agent.Request{
		URL:     req.URL,
		Method:  req.Method,
		Body:    req.Body,
		Headers: req.Headers,
	}
	if req.MaxPriceUSD != nil {
		limit := decimal.NewFromFloat(*req.MaxPriceUSD)
		agentReq.MaxPriceUSD = &limit
	}

	if !t.autoPay {
		accepts, result, err := t.client.Quote(ctx, agentReq)
		if err != nil {
			return "", err
		}
		if accepts == nil {
			return result.Body, nil
		}
		return describeQuote(t.client, accepts), nil
	}

	result, err := t.client.Fetch(ctx, agentReq)
	if err != nil {
		return "", err
	}
	return result.Body, nil
}

// describeQuote renders the server's payment alternatives for the agent to
// reason about.
func describeQuote(client *x402agent.Client, accepts []types.PaymentRequirements) string {
	var b strings.Builder
	b.WriteString("Payment required. The server accepts:\n")
	for _, req := range accepts {
		line := fmt.Sprintf("- %s to %s on %s", req.MaxAmountRequired, req.PayTo, req.Network)
		if units, err := req.AmountUnits(); err == nil {
			line = fmt.Sprintf("- $%s to %s on %s",
				client.Wallet().UnitsToUSD(units).StringFixed(4), req.PayTo, req.Network)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("Re-run with auto-pay enabled to proceed.")
	return b.String()
}
