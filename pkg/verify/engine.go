// Package verify implements the six-step payment verification pipeline
// (§4.4, §4.5) and the settlement flow that re-runs it before delegating
// on-chain execution to a settlement.Settler.
package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/x402-network/facilitator/pkg/eip712"
	"github.com/x402-network/facilitator/pkg/network"
	"github.com/x402-network/facilitator/pkg/noncestore"
	"github.com/x402-network/facilitator/pkg/settlement"
	"github.com/x402-network/facilitator/pkg/sigrecover"
	"github.com/x402-network/facilitator/pkg/types"
)

// Clock abstracts wall-clock time so tests can control the "now" used for
// the authorization-window check without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Engine runs the verification pipeline against one nonce store. A single
// Engine is shared across all networks: the store itself is what scopes
// replay protection, and nonces are namespaced by network+asset+nonce so a
// collision across chains cannot occur.
type Engine struct {
	Nonces noncestore.Store
	Clock  Clock
}

// NewEngine builds an Engine over a nonce store, using the system clock.
func NewEngine(store noncestore.Store) *Engine {
	return &Engine{Nonces: store, Clock: SystemClock{}}
}

func nonceKey(req types.VerifyRequest) string {
	auth := req.PaymentPayload.Payload.Authorization
	return string(req.PaymentPayload.Network) + ":" + req.PaymentRequirements.Asset + ":" + strings.ToLower(auth.Nonce)
}

// checkEnvelope enforces §3/§7: version, scheme, and network must agree
// between the payload and the requirements it is presented against. These
// are hard protocol errors, not policy outcomes — a client that gets these
// wrong is misusing the protocol, not submitting a payment that merely
// fails.
func checkEnvelope(req types.VerifyRequest) error {
	if req.PaymentPayload.X402Version != types.CurrentX402Version {
		return types.NewUnexpectedVersionError(req.PaymentPayload.X402Version)
	}
	if req.PaymentPayload.Scheme != types.SchemeExact {
		return types.NewUnsupportedSchemeError(req.PaymentPayload.Scheme)
	}
	if req.PaymentRequirements.Scheme != types.SchemeExact {
		return types.NewUnsupportedSchemeError(req.PaymentRequirements.Scheme)
	}
	if req.PaymentPayload.Scheme != req.PaymentRequirements.Scheme {
		return types.NewSchemeMismatchError(req.PaymentRequirements.Scheme, req.PaymentPayload.Scheme)
	}
	if req.PaymentPayload.Network != req.PaymentRequirements.Network {
		return types.NewNetworkMismatchError(req.PaymentRequirements.Network, req.PaymentPayload.Network)
	}
	if _, err := network.Lookup(req.PaymentPayload.Network); err != nil {
		return err
	}
	return nil
}

// invalid builds a VerifyResponse carrying a policy-outcome reason. Policy
// outcomes are always HTTP 200 with isValid=false, per §7 — only envelope
// and parsing failures are protocol errors.
func invalid(reason string) (*types.VerifyResponse, error) {
	return &types.VerifyResponse{IsValid: false, InvalidReason: reason}, nil
}

// Verify runs the six ordered checks from §4.4 against one payment
// authorization. A successful verification reserves the nonce: step 3
// (replay) performs an atomic MarkIfAbsent, not a read-only check, so that
// two concurrent verifications of the same authorization cannot both
// succeed (§8 invariant 7). The reservation is not rolled back if a later
// step fails this call, nor if a later Settle call fails — once reserved,
// a nonce stays reserved for as long as the store keeps it (the Redis
// backend's 24-hour TTL; until process exit for the in-memory backend).
// The call runs under a deadline of the requirements' MaxTimeoutSeconds,
// or 60 seconds when that is unset.
func (e *Engine) Verify(ctx context.Context, req types.VerifyRequest) (*types.VerifyResponse, error) {
	timeout := time.Duration(req.PaymentRequirements.MaxTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Step 1: envelope match.
	if err := checkEnvelope(req); err != nil {
		return nil, err
	}

	dom, err := network.Lookup(req.PaymentPayload.Network)
	if err != nil {
		return nil, err
	}

	auth := req.PaymentPayload.Payload.Authorization

	from, err := types.ParseAddress(auth.From)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	to, err := types.ParseAddress(auth.To)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	payTo, err := types.ParseAddress(req.PaymentRequirements.PayTo)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	value, err := types.ParseUint128(auth.Value)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	maxRequired, err := types.ParseUint128(req.PaymentRequirements.MaxAmountRequired)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	validAfter, err := types.ParseUnixSeconds(auth.ValidAfter)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	validBefore, err := types.ParseUnixSeconds(auth.ValidBefore)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	nonce, err := types.ParseNonce(auth.Nonce)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	sig, err := types.ParseSignature(req.PaymentPayload.Payload.Signature)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}

	// Step 2: temporal validity. validAfter <= now < validBefore.
	now := e.Clock.Now().Unix()
	if now < validAfter || now >= validBefore {
		return invalid(types.ReasonAuthorizationExpired)
	}

	// Step 3: replay protection. Reserves the nonce atomically.
	key := nonceKey(req)
	if err := e.Nonces.MarkIfAbsent(ctx, key); err != nil {
		if errors.Is(err, noncestore.ErrAlreadyPresent) {
			return invalid(types.ReasonNonceAlreadyUsed)
		}
		return nil, types.NewNonceStoreUnavailableError(err)
	}

	// Step 4: amount sufficiency. value must cover what the resource demands.
	if value.Cmp(maxRequired) < 0 {
		return invalid(types.ReasonInsufficientAmount)
	}

	// Step 5: recipient match. The authorization's "to" must be the
	// resource's configured payTo.
	if to != payTo {
		return invalid(types.ReasonRecipientMismatch)
	}

	// Step 6: signature validity. Recompute the EIP-712 digest for this
	// asset/chain and recover the signer; it must equal "from".
	assetAddr, err := types.ParseAddress(req.PaymentRequirements.Asset)
	if err != nil {
		return nil, types.NewInvalidPaymentPayloadError(err.Error())
	}
	digest := eip712.Digest(
		eip712.Domain{Name: dom.Name, Version: dom.Version, ChainID: dom.ChainIDBig(), VerifyingContract: assetAddr},
		eip712.Authorization{
			From:        from,
			To:          to,
			Value:       value,
			ValidAfter:  bigFromInt64(validAfter),
			ValidBefore: bigFromInt64(validBefore),
			Nonce:       nonce,
		},
	)
	signer, err := sigrecover.Recover(digest, sig)
	if err != nil || signer != from {
		return invalid(types.ReasonInvalidSignature)
	}

	return &types.VerifyResponse{IsValid: true, Payer: from.Hex()}, nil
}

// Settle re-runs Verify and, only if it succeeds, delegates on-chain
// execution to settler. A settlement failure does not release the nonce
// reserved during Verify: the authorization was already consumed the
// moment it was judged valid, and retrying it is the caller's
// responsibility via a fresh authorization, not a reservation rollback
// (§4.5, §5).
func (e *Engine) Settle(ctx context.Context, req types.VerifyRequest, settler settlement.Settler) (*types.SettleResponse, error) {
	verifyResp, err := e.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	if !verifyResp.IsValid {
		return &types.SettleResponse{
			Success:     false,
			ErrorReason: verifyResp.InvalidReason,
			Network:     req.PaymentPayload.Network,
		}, nil
	}

	dom, err := network.Lookup(req.PaymentPayload.Network)
	if err != nil {
		return nil, err
	}
	auth := req.PaymentPayload.Payload.Authorization

	from, _ := types.ParseAddress(auth.From)
	to, _ := types.ParseAddress(auth.To)
	value, _ := types.ParseUint128(auth.Value)
	validAfter, _ := types.ParseUnixSeconds(auth.ValidAfter)
	validBefore, _ := types.ParseUnixSeconds(auth.ValidBefore)
	nonce, _ := types.ParseNonce(auth.Nonce)
	sig, _ := types.ParseSignature(req.PaymentPayload.Payload.Signature)
	assetAddr, _ := types.ParseAddress(req.PaymentRequirements.Asset)

	txHash, err := settler.SendTransferWithAuthorization(
		ctx,
		eip712.Domain{Name: dom.Name, Version: dom.Version, ChainID: dom.ChainIDBig(), VerifyingContract: assetAddr},
		eip712.Authorization{
			From:        from,
			To:          to,
			Value:       value,
			ValidAfter:  bigFromInt64(validAfter),
			ValidBefore: bigFromInt64(validBefore),
			Nonce:       nonce,
		},
		sig,
	)
	if err != nil {
		return &types.SettleResponse{
			Success:     false,
			ErrorReason: "settlement_failed",
			Network:     req.PaymentPayload.Network,
			Payer:       verifyResp.Payer,
		}, nil
	}

	return &types.SettleResponse{
		Success:     true,
		Transaction: txHash,
		Network:     req.PaymentPayload.Network,
		Payer:       verifyResp.Payer,
	}, nil
}
