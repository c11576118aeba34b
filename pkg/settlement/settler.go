// Package settlement defines the Blockchain Settlement Collaborator
// interface (§6) the verification engine delegates on-chain execution to,
// plus two implementations: a stub for the reference standalone binary and
// a real EVM relayer.
package settlement

import (
	"context"

	"github.com/x402-network/facilitator/pkg/eip712"
)

// Settler is the narrow contract the facilitator core requires: relay a
// pre-signed EIP-3009 authorization on-chain and report the resulting
// transaction hash. The core does not dictate how the collaborator builds
// or signs the outer transaction.
type Settler interface {
	SendTransferWithAuthorization(ctx context.Context, domain eip712.Domain, auth eip712.Authorization, signature []byte) (txHash string, err error)
}
