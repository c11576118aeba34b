// Package facilitator wires the verification engine and per-network
// settlers behind the Facilitator interface the HTTP surface calls into.
package facilitator

import (
	"context"

	"github.com/x402-network/facilitator/pkg/types"
)

// Facilitator is the core contract the HTTP handlers depend on. A
// Facilitator never holds funds: it verifies client-submitted payloads
// off-chain and, on Settle, delegates on-chain execution to a
// settlement.Settler.
type Facilitator interface {
	// Verify validates a payment payload against requirements without
	// submitting anything on-chain.
	Verify(ctx context.Context, req types.VerifyRequest) (*types.VerifyResponse, error)

	// Settle re-validates and, if valid, executes the payment on-chain.
	Settle(ctx context.Context, req types.VerifyRequest) (*types.SettleResponse, error)

	// Supported lists the scheme/network combinations this facilitator
	// accepts.
	Supported(ctx context.Context) (*types.SupportedResponse, error)
}
