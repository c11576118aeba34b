package types

import "testing"

func TestNewPaymentRequirementsNormalizesAddresses(t *testing.T) {
	req := NewPaymentRequirements(NetworkBase, "1000000",
		"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"0x2096934366F4e6B31dfC2d3bD6f9b37e8c9287C",
		"https://example.com/resource", "example")

	if req.Asset != "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913" {
		t.Errorf("asset not normalized: %s", req.Asset)
	}
	if req.PayTo != "0x2096934366f4e6b31dfc2d3bd6f9b37e8c9287c" {
		t.Errorf("payTo not normalized: %s", req.PayTo)
	}
	if req.MaxTimeoutSeconds != 60 {
		t.Errorf("expected default MaxTimeoutSeconds of 60, got %d", req.MaxTimeoutSeconds)
	}
	if req.Scheme != SchemeExact {
		t.Errorf("expected scheme exact, got %s", req.Scheme)
	}
}

func TestNetworkIsEVM(t *testing.T) {
	for _, n := range []Network{NetworkBase, NetworkBaseSepolia, NetworkAvalanche, NetworkAvalancheFuji} {
		if !n.IsEVM() {
			t.Errorf("%s should be EVM", n)
		}
	}
	if Network("solana").IsEVM() {
		t.Error("solana should not be EVM")
	}
}
