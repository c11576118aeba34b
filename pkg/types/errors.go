package types

import "fmt"

// ProtocolError is a §7 protocol/system error: malformed input, envelope
// disagreement, or backend failure. It carries the HTTP status the
// facilitator surface must respond with, so handlers never pattern-match
// on a string code.
type ProtocolError struct {
	Code    string
	Message string
	Status  int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidPaymentPayloadError reports malformed base64, JSON, or field shape.
func NewInvalidPaymentPayloadError(msg string) *ProtocolError {
	return &ProtocolError{Code: "InvalidPaymentPayload", Message: msg, Status: 400}
}

// NewSchemeMismatchError reports a payload/requirements scheme disagreement.
func NewSchemeMismatchError(expected, actual Scheme) *ProtocolError {
	return &ProtocolError{
		Code:    "SchemeMismatch",
		Message: fmt.Sprintf("expected scheme %q, got %q", expected, actual),
		Status:  400,
	}
}

// NewNetworkMismatchError reports a payload/requirements network disagreement.
func NewNetworkMismatchError(expected, actual Network) *ProtocolError {
	return &ProtocolError{
		Code:    "NetworkMismatch",
		Message: fmt.Sprintf("expected network %q, got %q", expected, actual),
		Status:  400,
	}
}

// NewUnsupportedSchemeError reports a scheme this build does not implement.
func NewUnsupportedSchemeError(scheme Scheme) *ProtocolError {
	return &ProtocolError{
		Code:    "UnsupportedScheme",
		Message: fmt.Sprintf("unsupported scheme %q", scheme),
		Status:  400,
	}
}

// NewUnsupportedNetworkError reports a network outside the configured domain table.
func NewUnsupportedNetworkError(network Network) *ProtocolError {
	return &ProtocolError{
		Code:    "UnsupportedNetwork",
		Message: fmt.Sprintf("unsupported network %q", network),
		Status:  400,
	}
}

// NewUnexpectedVersionError reports an x402Version this build does not accept.
func NewUnexpectedVersionError(v X402Version) *ProtocolError {
	return &ProtocolError{
		Code:    "InvalidPaymentPayload",
		Message: fmt.Sprintf("unsupported x402Version %d", v),
		Status:  400,
	}
}

// NewNonceStoreUnavailableError wraps a nonce-store backend failure.
func NewNonceStoreUnavailableError(cause error) *ProtocolError {
	return &ProtocolError{Code: "NonceStoreUnavailable", Message: cause.Error(), Status: 500}
}

// Policy outcome slugs. Returned as VerifyResponse.InvalidReason with HTTP 200.
const (
	ReasonAuthorizationExpired = "authorization_expired"
	ReasonNonceAlreadyUsed     = "nonce_already_used"
	ReasonInsufficientAmount   = "insufficient_amount"
	ReasonRecipientMismatch    = "recipient_mismatch"
	ReasonInvalidSignature     = "invalid_signature"
)
