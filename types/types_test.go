package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequirement(now time.Time) PaymentRequirements {
	return PaymentRequirements{
		Scheme:            "exact",
		Network:           "base-sepolia",
		MaxAmountRequired: "10000",
		PayTo:             "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		ValidUntil:        now.Add(10 * time.Minute).Unix(),
	}
}

func TestPaymentRequirements_Validate(t *testing.T) {
	now := time.Now()

	req := validRequirement(now)
	require.NoError(t, req.Validate(now))
}

func TestPaymentRequirements_RejectsNonPositiveAmount(t *testing.T) {
	now := time.Now()

	req := validRequirement(now)
	req.MaxAmountRequired = "0"
	err := req.Validate(now)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrMalformedPayload))

	req.MaxAmountRequired = "not-a-number"
	err = req.Validate(now)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrMalformedPayload))
}

func TestPaymentRequirements_RejectsExpired(t *testing.T) {
	now := time.Now()

	req := validRequirement(now)
	req.ValidUntil = now.Add(-time.Minute).Unix()
	err := req.Validate(now)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrMalformedPayload))
}

func TestPaymentRequirements_ValidateIgnoresNetwork(t *testing.T) {
	now := time.Now()

	// An alternative on a chain this buyer cannot use is still a valid
	// quote; rejection, if any, happens when one is selected.
	req := validRequirement(now)
	req.Network = "solana-mainnet"
	require.NoError(t, req.Validate(now))
}

func TestPaymentRequirements_ValidBefore(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	pinned := PaymentRequirements{ValidUntil: now.Unix() + 42}
	assert.Equal(t, now.Unix()+42, pinned.ValidBefore(now))

	relative := PaymentRequirements{MaxTimeoutSeconds: 120}
	assert.Equal(t, now.Unix()+120, relative.ValidBefore(now))

	// Neither pinned nor relative: a default window applies.
	bare := PaymentRequirements{}
	assert.Equal(t, now.Unix()+600, bare.ValidBefore(now))
}

func TestErrorCodeHelpers(t *testing.T) {
	err := NewError(ErrBudgetExceeded, "over budget")
	assert.Equal(t, ErrBudgetExceeded, ErrorCode(err))
	assert.True(t, IsCode(err, ErrBudgetExceeded))
	assert.False(t, IsCode(err, ErrPriceExceedsLimit))
	assert.Equal(t, "", ErrorCode(assert.AnError))
}
