package facilitator

import (
	"context"

	"github.com/x402-network/facilitator/pkg/network"
	"github.com/x402-network/facilitator/pkg/settlement"
	"github.com/x402-network/facilitator/pkg/types"
	"github.com/x402-network/facilitator/pkg/verify"
)

// LocalFacilitator is the standalone, single-process implementation of
// Facilitator: one shared verify.Engine and one settlement.Settler per
// configured network.
type LocalFacilitator struct {
	engine   *verify.Engine
	settlers map[types.Network]settlement.Settler
}

// NewLocalFacilitator builds a LocalFacilitator over a shared verification
// engine. Networks are registered afterward with AddSettler.
func NewLocalFacilitator(engine *verify.Engine) *LocalFacilitator {
	return &LocalFacilitator{
		engine:   engine,
		settlers: make(map[types.Network]settlement.Settler),
	}
}

// AddSettler registers the settlement backend for one network.
func (f *LocalFacilitator) AddSettler(n types.Network, s settlement.Settler) {
	f.settlers[n] = s
}

func (f *LocalFacilitator) Verify(ctx context.Context, req types.VerifyRequest) (*types.VerifyResponse, error) {
	return f.engine.Verify(ctx, req)
}

func (f *LocalFacilitator) Settle(ctx context.Context, req types.VerifyRequest) (*types.SettleResponse, error) {
	settler, ok := f.settlers[req.PaymentPayload.Network]
	if !ok {
		return nil, types.NewUnsupportedNetworkError(req.PaymentPayload.Network)
	}
	return f.engine.Settle(ctx, req, settler)
}

func (f *LocalFacilitator) Supported(ctx context.Context) (*types.SupportedResponse, error) {
	kinds := make([]types.SupportedKind, 0, len(f.settlers))
	for n := range f.settlers {
		dom, err := network.Lookup(n)
		if err != nil {
			continue
		}
		kinds = append(kinds, types.SupportedKind{
			X402Version: types.CurrentX402Version,
			Scheme:      types.SchemeExact,
			Network:     n,
			Metadata:    dom.MetadataJSON(),
		})
	}
	return &types.SupportedResponse{Kinds: kinds}, nil
}
