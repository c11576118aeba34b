// Package sigrecover recovers an Ethereum address from a 65-byte
// secp256k1 signature over a 32-byte digest (§4.3). Pure and I/O-free, like
// eip712, so the two together can be safely reordered relative to the
// nonce-store CAS call (§9).
package sigrecover

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recover recovers the signer address from a 65-byte signature (r||s||v)
// over digest. v may be 0, 1, 27, or 28; 27/28 are normalised to 0/1 before
// recovery, as go-ethereum's crypto package expects.
func Recover(digest [32]byte, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("sigrecover: signature must be 65 bytes, got %d", len(signature))
	}

	sig := make([]byte, 65)
	copy(sig, signature)

	switch sig[64] {
	case 27, 28:
		sig[64] -= 27
	case 0, 1:
		// already normalised
	default:
		return common.Address{}, fmt.Errorf("sigrecover: invalid recovery id %d", signature[64])
	}

	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("sigrecover: recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
