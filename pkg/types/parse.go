package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseUint128 parses a decimal string as an unsigned integer that must fit
// in 128 bits (value and maxAmountRequired, per §3).
func ParseUint128(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("types: %q is not a valid unsigned decimal integer", s)
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("types: %q exceeds 128 bits", s)
	}
	return v, nil
}

// ParseUnixSeconds parses a decimal string as a non-negative Unix timestamp.
func ParseUnixSeconds(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("types: %q is not a valid unix timestamp", s)
	}
	return n, nil
}

func trimHexPrefix(s string) string {
	s = strings.TrimPrefix(s, "0x")
	return strings.TrimPrefix(s, "0X")
}

// ParseAddress decodes a 20-byte hex address, with or without the 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	trimmed := trimHexPrefix(s)
	if len(trimmed) != 40 {
		return common.Address{}, fmt.Errorf("types: address %q is not 20 bytes", s)
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return common.Address{}, fmt.Errorf("types: address %q is not valid hex: %w", s, err)
	}
	return common.BytesToAddress(b), nil
}

// ParseNonce decodes a 32-byte hex authorization nonce.
func ParseNonce(s string) ([32]byte, error) {
	var out [32]byte
	trimmed := trimHexPrefix(s)
	if len(trimmed) != 64 {
		return out, fmt.Errorf("types: nonce %q is not 32 bytes", s)
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("types: nonce %q is not valid hex: %w", s, err)
	}
	copy(out[:], b)
	return out, nil
}

// ParseSignature decodes a 65-byte hex signature (r || s || v).
func ParseSignature(s string) ([]byte, error) {
	trimmed := trimHexPrefix(s)
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("types: signature is not valid hex: %w", err)
	}
	if len(b) != 65 {
		return nil, fmt.Errorf("types: signature must be 65 bytes, got %d", len(b))
	}
	return b, nil
}

// NormalizeAddress lowercases a hex address string for case-insensitive
// comparison. Applied to PayTo/Asset at requirements-construction time and
// to the payload's from/to fields at decode time, per §9.
func NormalizeAddress(s string) string {
	return strings.ToLower(s)
}
