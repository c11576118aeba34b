package types

import "encoding/json"

// X402Version is the protocol version carried on the wire.
type X402Version int

// CurrentX402Version is the only version this facilitator accepts.
const CurrentX402Version X402Version = 1

// Scheme names a payment authorization family. The facilitator supports
// exactly one: exact (EIP-3009 transferWithAuthorization).
type Scheme string

const SchemeExact Scheme = "exact"

// Network is a short tag naming a supported chain.
type Network string

const (
	NetworkBase          Network = "base"
	NetworkBaseSepolia   Network = "base-sepolia"
	NetworkAvalanche     Network = "avalanche"
	NetworkAvalancheFuji Network = "avalanche-fuji"
)

// PaymentRequirements is what a resource demands of a payer.
type PaymentRequirements struct {
	Scheme            Scheme          `json:"scheme"`
	Network           Network         `json:"network"`
	MaxAmountRequired string          `json:"maxAmountRequired"`
	Asset             string          `json:"asset"`
	PayTo             string          `json:"payTo"`
	Resource          string          `json:"resource"`
	Description       string          `json:"description,omitempty"`
	MimeType          string          `json:"mimeType,omitempty"`
	OutputSchema      json.RawMessage `json:"outputSchema,omitempty"`
	MaxTimeoutSeconds int             `json:"maxTimeoutSeconds"`
	Extra             json.RawMessage `json:"extra,omitempty"`
}

// NewPaymentRequirements builds requirements with PayTo/Asset normalised to
// lowercase hex and MaxTimeoutSeconds defaulted to 60, per §3.
func NewPaymentRequirements(network Network, maxAmountRequired, asset, payTo, resource, description string) *PaymentRequirements {
	return &PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           network,
		MaxAmountRequired: maxAmountRequired,
		Asset:             NormalizeAddress(asset),
		PayTo:             NormalizeAddress(payTo),
		Resource:          resource,
		Description:       description,
		MaxTimeoutSeconds: 60,
	}
}

// ExactAuthorization is the EIP-3009 transferWithAuthorization tuple.
type ExactAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ExactPayload is the scheme-specific body of a PaymentPayload for "exact".
type ExactPayload struct {
	Signature     string             `json:"signature"`
	Authorization ExactAuthorization `json:"authorization"`
}

// PaymentPayload is what a client submits.
type PaymentPayload struct {
	X402Version X402Version  `json:"x402Version"`
	Scheme      Scheme       `json:"scheme"`
	Network     Network      `json:"network"`
	Payload     ExactPayload `json:"payload"`
}

// VerifyRequest is the body of POST /verify (and, with identical shape,
// POST /settle).
type VerifyRequest struct {
	X402Version         X402Version         `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse is the result of a verification.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the result of settlement.
type SettleResponse struct {
	Success     bool    `json:"success"`
	ErrorReason string  `json:"errorReason,omitempty"`
	Transaction string  `json:"transaction"`
	Network     Network `json:"network,omitempty"`
	Payer       string  `json:"payer,omitempty"`
}

// SupportedKind describes one payment kind a facilitator accepts.
type SupportedKind struct {
	X402Version X402Version     `json:"x402Version"`
	Scheme      Scheme          `json:"scheme"`
	Network     Network         `json:"network"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// SupportedResponse is the body of GET /supported.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// DiscoveryResource is one entry returned by GET /discovery/resources.
type DiscoveryResource struct {
	Resource    string                `json:"resource"`
	Type        string                `json:"type"`
	X402Version X402Version           `json:"x402Version"`
	Accepts     []PaymentRequirements `json:"accepts"`
	LastUpdated int64                 `json:"lastUpdated"`
	Metadata    json.RawMessage       `json:"metadata,omitempty"`
}

// Pagination describes a page of a larger result set.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// DiscoveryResponse is the body of GET /discovery/resources.
type DiscoveryResponse struct {
	X402Version X402Version         `json:"x402Version"`
	Items       []DiscoveryResource `json:"items"`
	Pagination  Pagination          `json:"pagination"`
}

// IsEVM reports whether n is one of the EVM chains this build supports.
// All currently supported networks are EVM; kept as a named predicate so
// call sites read as intent rather than an enum switch.
func (n Network) IsEVM() bool {
	switch n {
	case NetworkBase, NetworkBaseSepolia, NetworkAvalanche, NetworkAvalancheFuji:
		return true
	default:
		return false
	}
}
