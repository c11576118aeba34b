package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/x402-network/facilitator/pkg/eip712"
)

// StubSettler fabricates a random transaction hash instead of calling a
// blockchain. It is used by tests; config.BuildFacilitator never wires it
// (it builds EVMSettlers and fails when no relayer key is configured), so
// production deployments run with a real Settler such as EVMSettler.
type StubSettler struct{}

// NewStubSettler constructs a StubSettler.
func NewStubSettler() *StubSettler { return &StubSettler{} }

func (StubSettler) SendTransferWithAuthorization(ctx context.Context, domain eip712.Domain, auth eip712.Authorization, signature []byte) (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b[:]), nil
}
