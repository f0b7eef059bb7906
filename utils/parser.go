// Package utils holds the payment header codec and key helpers shared by
// the wallet and the negotiating client.
package utils

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vitwit/x402-agent/types"
)

var validate = validator.New()

// DecodePaymentRequired decodes the base64 payment-requirements header of a
// 402 response into the set of alternatives the server accepts. Both the
// list form ({"x402Version":1,"accepts":[...]}) and a bare single
// requirement object are understood. Every alternative must be structurally
// valid or the payload is rejected wholesale; whether an alternative's
// network is usable is left to selection, so a quote mixing supported and
// unsupported chains still decodes in full. Decoding has no side effects.
func DecodePaymentRequired(headerValue string, now time.Time) ([]types.PaymentRequirements, error) {
	if headerValue == "" {
		return nil, types.NewError(types.ErrMalformedPayload, "empty payment-required header")
	}

	raw, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, types.NewError(types.ErrMalformedPayload,
			fmt.Sprintf("payment-required header is not valid base64: %v", err))
	}

	accepts, err := unmarshalRequirements(raw)
	if err != nil {
		return nil, err
	}

	for i := range accepts {
		if accepts[i].Scheme == "" {
			accepts[i].Scheme = string(types.SchemeExact)
		}
		if err := validate.Struct(&accepts[i]); err != nil {
			return nil, types.NewError(types.ErrMalformedPayload,
				fmt.Sprintf("payment requirement %d invalid: %v", i, err))
		}
		if err := accepts[i].Validate(now); err != nil {
			return nil, err
		}
	}

	return accepts, nil
}

func unmarshalRequirements(raw []byte) ([]types.PaymentRequirements, error) {
	var resp types.X402Response
	if err := json.Unmarshal(raw, &resp); err == nil && len(resp.Accepts) > 0 {
		return resp.Accepts, nil
	}

	var single types.PaymentRequirements
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, types.NewError(types.ErrMalformedPayload,
			fmt.Sprintf("failed to parse payment requirements: %v", err))
	}
	if single.Network == "" && single.MaxAmountRequired == "" && single.PayTo == "" {
		return nil, types.NewError(types.ErrMalformedPayload, "payment requirements empty")
	}
	return []types.PaymentRequirements{single}, nil
}

// EncodePaymentHeader serializes a signed payment payload into the base64
// value of the payment header.
func EncodePaymentHeader(payload *types.PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewError(types.ErrMalformedPayload,
			fmt.Sprintf("failed to marshal payment payload: %v", err))
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePaymentHeader is the inverse of EncodePaymentHeader. Used by tests
// and by servers inspecting what a client sent.
func DecodePaymentHeader(headerValue string) (*types.PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, types.NewError(types.ErrMalformedPayload,
			fmt.Sprintf("payment header is not valid base64: %v", err))
	}
	var payload types.PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, types.NewError(types.ErrMalformedPayload,
			fmt.Sprintf("failed to parse payment header: %v", err))
	}
	return &payload, nil
}

// DecodeSettlementReceipt parses the optional settlement acknowledgement
// header of a paid response. Returns nil when the header is absent.
func DecodeSettlementReceipt(headerValue string) (*types.SettlementReceipt, error) {
	if headerValue == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, fmt.Errorf("settlement receipt is not valid base64: %w", err)
	}
	var receipt types.SettlementReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("failed to parse settlement receipt: %w", err)
	}
	return &receipt, nil
}
