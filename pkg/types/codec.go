package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DecodePaymentPayloadHeader decodes the X-PAYMENT header value: standard
// base64 (not URL-safe) wrapping the JSON Payment Payload.
func DecodePaymentPayloadHeader(header string) (*PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, NewInvalidPaymentPayloadError(fmt.Sprintf("invalid base64: %v", err))
	}

	var payload PaymentPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, NewInvalidPaymentPayloadError(fmt.Sprintf("invalid payment payload: %v", err))
	}

	payload.Payload.Authorization.From = NormalizeAddress(payload.Payload.Authorization.From)
	payload.Payload.Authorization.To = NormalizeAddress(payload.Payload.Authorization.To)
	return &payload, nil
}

// EncodePaymentPayloadHeader is the symmetric encoder, used by clients
// constructing the X-PAYMENT header.
func EncodePaymentPayloadHeader(payload *PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeSettleResponseHeader decodes the X-PAYMENT-RESPONSE header a
// resource server echoes back to its client.
func DecodeSettleResponseHeader(header string) (*SettleResponse, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, NewInvalidPaymentPayloadError(fmt.Sprintf("invalid base64: %v", err))
	}
	var resp SettleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, NewInvalidPaymentPayloadError(fmt.Sprintf("invalid settle response: %v", err))
	}
	return &resp, nil
}

// EncodeSettleResponseHeader is the symmetric encoder.
func EncodeSettleResponseHeader(resp *SettleResponse) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
