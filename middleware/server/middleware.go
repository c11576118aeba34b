// Package server provides the resource-server side of x402: gating an
// http.Handler behind a PaymentRequirements and delegating verification and
// settlement to a facilitator over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/x402-network/facilitator/pkg/authheaders"
	"github.com/x402-network/facilitator/pkg/types"
)

const (
	paymentHeader         = "X-Payment"
	paymentResponseHeader = "X-Payment-Response"
)

// X402Middleware calls out to a facilitator to verify and settle payments
// before letting a request reach the protected handler.
type X402Middleware struct {
	facilitatorURL string
	client         *http.Client
	authHeaders    authheaders.HeaderFactory
}

// NewX402Middleware creates a new middleware instance. The facilitator is
// called without any auth headers by default, suitable for a standalone,
// trusted-network facilitator deployment; use WithAuthHeaders to attach one
// when the facilitator is a hosted service sitting behind an API key.
func NewX402Middleware(facilitatorURL string) *X402Middleware {
	return &X402Middleware{
		facilitatorURL: strings.TrimSuffix(facilitatorURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithAuthHeaders attaches a HeaderFactory used to authenticate every
// outbound /verify and /settle call, and returns m for chaining.
func (m *X402Middleware) WithAuthHeaders(hf authheaders.HeaderFactory) *X402Middleware {
	m.authHeaders = hf
	return m
}

// PriceTag pairs an http.Handler's payment requirements with the wire shape
// the facilitator expects.
type PriceTag struct {
	Requirements types.PaymentRequirements
}

// NewPriceTag builds a price tag for one protected resource.
func NewPriceTag(network types.Network, maxAmountRequired, asset, payTo, resource, description, mimeType string, maxTimeoutSeconds int, outputSchema json.RawMessage) *PriceTag {
	return &PriceTag{
		Requirements: types.PaymentRequirements{
			Scheme:            types.SchemeExact,
			Network:           network,
			MaxAmountRequired: maxAmountRequired,
			Asset:             types.NormalizeAddress(asset),
			PayTo:             types.NormalizeAddress(payTo),
			Resource:          resource,
			Description:       description,
			MimeType:          mimeType,
			MaxTimeoutSeconds: maxTimeoutSeconds,
			OutputSchema:      outputSchema,
		},
	}
}

// Protect wraps an HTTP handler with payment verification. Requests without
// a valid X-Payment header receive 402 Payment Required carrying the
// requirements; requests with a valid one are settled before the handler
// runs, and the settlement receipt is echoed back on X-Payment-Response.
//
// Protect calls /settle directly rather than /verify followed by /settle:
// per the facilitator's settle(P, R) contract, settlement re-runs the full
// verification pipeline itself (including the nonce reservation), so a
// prior /verify call against the same payload would reserve the nonce and
// make the following /settle call fail with nonce_already_used. Resource
// servers that want a dry-run check without settling can call /verify on
// its own; Protect always wants the payment collected, so it settles once.
func (m *X402Middleware) Protect(next http.Handler, priceTag *PriceTag) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(paymentHeader)
		if header == "" {
			m.send402(w, &priceTag.Requirements, "")
			return
		}

		payload, err := types.DecodePaymentPayloadHeader(header)
		if err != nil {
			m.send402(w, &priceTag.Requirements, "invalid_payment_payload")
			return
		}

		verifyReq := types.VerifyRequest{
			X402Version:         types.CurrentX402Version,
			PaymentPayload:      *payload,
			PaymentRequirements: priceTag.Requirements,
		}

		settleResp, err := m.call("/settle", &verifyReq)
		if err != nil {
			http.Error(w, fmt.Sprintf("payment settlement failed: %v", err), http.StatusInternalServerError)
			return
		}
		var parsedSettle types.SettleResponse
		if err := json.Unmarshal(settleResp, &parsedSettle); err != nil {
			http.Error(w, "facilitator returned a malformed settle response", http.StatusInternalServerError)
			return
		}
		if !parsedSettle.Success {
			m.send402(w, &priceTag.Requirements, parsedSettle.ErrorReason)
			return
		}

		if encoded, err := types.EncodeSettleResponseHeader(&parsedSettle); err == nil {
			w.Header().Set(paymentResponseHeader, encoded)
		}

		next.ServeHTTP(w, r)
	})
}

// call posts req to path on the facilitator and returns the raw response
// body. When m.authHeaders is set, the endpoint-class headers it mints are
// attached to the outbound request (§4.7).
func (m *X402Middleware) call(path string, req *types.VerifyRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, m.facilitatorURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build facilitator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if m.authHeaders != nil {
		endpoint := authheaders.EndpointVerify
		if path == "/settle" {
			endpoint = authheaders.EndpointSettle
		}
		headers, err := m.authHeaders.Headers(endpoint)
		if err != nil {
			return nil, fmt.Errorf("mint auth headers: %w", err)
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("facilitator request failed: %w", err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read facilitator response: %w", err)
	}
	return buf.Bytes(), nil
}

// send402 sends a 402 Payment Required response carrying the requirements
// and, optionally, the reason a prior attempt was rejected.
func (m *X402Middleware) send402(w http.ResponseWriter, requirements *types.PaymentRequirements, reason string) {
	reqJSON, _ := json.Marshal(requirements)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Payment-Required", string(reqJSON))
	w.WriteHeader(http.StatusPaymentRequired)

	response := map[string]interface{}{
		"x402Version":         types.CurrentX402Version,
		"error":               "payment required",
		"paymentRequirements": requirements,
	}
	if reason != "" {
		response["reason"] = reason
	}

	json.NewEncoder(w).Encode(response)
}

// PriceTagBuilder provides a fluent API for creating price tags.
type PriceTagBuilder struct {
	network           types.Network
	maxAmountRequired string
	asset             string
	payTo             string
	resource          string
	description       string
	mimeType          string
	maxTimeoutSeconds int
	outputSchema      json.RawMessage
}

// NewPriceTagBuilder creates a new builder.
func NewPriceTagBuilder() *PriceTagBuilder {
	return &PriceTagBuilder{maxTimeoutSeconds: 60}
}

func (b *PriceTagBuilder) Network(network types.Network) *PriceTagBuilder {
	b.network = network
	return b
}

func (b *PriceTagBuilder) MaxAmountRequired(amount string) *PriceTagBuilder {
	b.maxAmountRequired = amount
	return b
}

func (b *PriceTagBuilder) PayTo(addr string) *PriceTagBuilder {
	b.payTo = addr
	return b
}

func (b *PriceTagBuilder) Asset(addr string) *PriceTagBuilder {
	b.asset = addr
	return b
}

func (b *PriceTagBuilder) Resource(resource string) *PriceTagBuilder {
	b.resource = resource
	return b
}

func (b *PriceTagBuilder) Description(description string) *PriceTagBuilder {
	b.description = description
	return b
}

func (b *PriceTagBuilder) MimeType(mimeType string) *PriceTagBuilder {
	b.mimeType = mimeType
	return b
}

func (b *PriceTagBuilder) MaxTimeoutSeconds(seconds int) *PriceTagBuilder {
	b.maxTimeoutSeconds = seconds
	return b
}

func (b *PriceTagBuilder) OutputSchema(schema json.RawMessage) *PriceTagBuilder {
	b.outputSchema = schema
	return b
}

// Build creates the price tag.
func (b *PriceTagBuilder) Build() *PriceTag {
	return NewPriceTag(b.network, b.maxAmountRequired, b.asset, b.payTo, b.resource, b.description, b.mimeType, b.maxTimeoutSeconds, b.outputSchema)
}
