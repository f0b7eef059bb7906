package wallet

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vitwit/x402-agent/types"
	"github.com/vitwit/x402-agent/utils"
	"github.com/vitwit/x402-agent/utils/eip712"
)

// AuthorizationProof is a signed, single-use EIP-3009 transfer
// authorization. The nonce is fresh per proof, so a proof can never be
// replayed, and the tuple is bound to exactly one validated requirement.
type AuthorizationProof struct {
	Signature   string
	From        string
	To          string
	Value       string
	ValidAfter  int64
	ValidBefore int64
	Nonce       string
}

// Authorization returns the proof's tuple in wire form.
func (p *AuthorizationProof) Authorization() types.EIP3009Authorization {
	return types.EIP3009Authorization{
		From:        p.From,
		To:          p.To,
		Value:       p.Value,
		ValidAfter:  fmt.Sprintf("%d", p.ValidAfter),
		ValidBefore: fmt.Sprintf("%d", p.ValidBefore),
		Nonce:       p.Nonce,
	}
}

// SignAuthorization builds and signs a TransferWithAuthorization for the
// given requirement. The signer constructs the tuple itself from the
// requirement and the wallet; it refuses a requirement quoting a network
// the wallet is not bound to, an unparsable recipient, or a non-positive
// amount. It is deliberately not a sign-arbitrary-bytes primitive.
func (w *Wallet) SignAuthorization(req *types.PaymentRequirements, now time.Time) (*AuthorizationProof, error) {
	chain, err := w.resolveForSigning(req)
	if err != nil {
		return nil, err
	}

	if !utils.ValidateAddress(req.PayTo) {
		return nil, types.NewError(types.ErrSigningFailure,
			fmt.Sprintf("invalid payTo address: %q", req.PayTo))
	}

	value, err := req.AmountUnits()
	if err != nil {
		return nil, types.NewError(types.ErrSigningFailure, err.Error())
	}
	if value.Sign() <= 0 {
		return nil, types.NewError(types.ErrSigningFailure, "authorization amount must be positive")
	}

	validBefore := req.ValidBefore(now)
	if validBefore <= now.Unix() {
		return nil, types.NewError(types.ErrSigningFailure, "authorization window already expired")
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, types.NewError(types.ErrSigningFailure,
			fmt.Sprintf("failed to generate nonce: %v", err))
	}

	asset := req.Asset
	if asset == "" {
		asset = chain.TokenContract
	} else if !utils.ValidateAddress(asset) {
		return nil, types.NewError(types.ErrSigningFailure,
			fmt.Sprintf("invalid asset contract: %q", req.Asset))
	}

	domain := eip712.Domain{
		Name:              chain.TokenName,
		Version:           chain.TokenVersion,
		ChainId:           chain.ChainID,
		VerifyingContract: asset,
	}

	proof := &AuthorizationProof{
		From:        w.address.Hex(),
		To:          utils.NormalizeAddress(req.PayTo),
		Value:       value.String(),
		ValidAfter:  0, // immediately valid
		ValidBefore: validBefore,
		Nonce:       hexutil.Encode(nonce),
	}

	digest, err := eip712.TransferAuthorizationDigest(
		domain,
		proof.From,
		proof.To,
		proof.Value,
		"0",
		fmt.Sprintf("%d", proof.ValidBefore),
		proof.Nonce,
	)
	if err != nil {
		return nil, types.NewError(types.ErrSigningFailure,
			fmt.Sprintf("failed to build authorization digest: %v", err))
	}

	sig, err := utils.SignDigest(digest.Bytes(), w.key)
	if err != nil {
		return nil, types.NewError(types.ErrSigningFailure,
			fmt.Sprintf("failed to sign authorization: %v", err))
	}
	proof.Signature = sig

	return proof, nil
}

// resolveForSigning enforces the one-wallet-one-network rule: a quote on a
// different network than the wallet's never gets signed, even if the
// network itself is supported.
func (w *Wallet) resolveForSigning(req *types.PaymentRequirements) (*types.ChainParams, error) {
	chain, err := w.registry.Resolve(req.Network)
	if err != nil {
		return nil, err
	}
	if chain.Canonical != w.chain.Canonical {
		return nil, types.NewError(types.ErrNoMatchingNetwork,
			fmt.Sprintf("quote is for %s, wallet is bound to %s", chain.Canonical, w.chain.Canonical))
	}
	return w.chain, nil
}

// generateNonce returns 32 unpredictable bytes.
func generateNonce() ([]byte, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
