// Package noncestore implements replay protection for authorization nonces
// (§4.4). The only mutation primitive is a compound check-and-set
// (MarkIfAbsent); there is no plain mark operation, so callers cannot build
// the racy has-then-mark sequence, and a Has result must never be used to
// decide whether a nonce is free (§5, §8 invariant 7).
package noncestore

import (
	"context"
	"errors"
)

// ErrAlreadyPresent is returned by MarkIfAbsent when the nonce was already reserved.
var ErrAlreadyPresent = errors.New("noncestore: nonce already present")

// Store is the replay-protection contract every nonce backend must satisfy.
type Store interface {
	// Has reports whether MarkIfAbsent has previously succeeded for nonce.
	// Not used on the verification hot path; exposed for diagnostics and tests.
	Has(ctx context.Context, nonce string) (bool, error)

	// MarkIfAbsent atomically reserves nonce. It returns ErrAlreadyPresent if
	// another caller already reserved it; the verification pipeline treats
	// that as the nonce_already_used policy outcome, not a system error.
	MarkIfAbsent(ctx context.Context, nonce string) error

	// Remove performs best-effort cleanup. Not used on the verification hot path.
	Remove(ctx context.Context, nonce string) error
}

// UnavailableError wraps a backend I/O failure (connection, command
// dispatch). The verification pipeline maps this to a 500
// NonceStoreUnavailable protocol error.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "noncestore: backend unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// NewUnavailableError wraps cause as an UnavailableError.
func NewUnavailableError(cause error) error {
	return &UnavailableError{Err: cause}
}
