package settlement

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func testSigner(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestNewEVMSettlerRejectsNoSigners(t *testing.T) {
	if _, err := NewEVMSettler(nil, nil, 1); err == nil {
		t.Fatal("expected error when no signers are configured")
	}
}

func TestNewEVMSettlerDefaultsConfirmations(t *testing.T) {
	s, err := NewEVMSettler(nil, []*ecdsa.PrivateKey{testSigner(t)}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.confirmations != 1 {
		t.Fatalf("expected confirmations to default to 1, got %d", s.confirmations)
	}
}

func TestNewEVMSettlerParsesABI(t *testing.T) {
	s, err := NewEVMSettler(nil, []*ecdsa.PrivateKey{testSigner(t)}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.abi.Methods["transferWithAuthorization"]; !ok {
		t.Fatal("expected transferWithAuthorization method in parsed ABI")
	}
	if s.confirmations != 3 {
		t.Fatalf("expected confirmations 3, got %d", s.confirmations)
	}
}

func TestNewEVMSettlerRoundRobinsSigners(t *testing.T) {
	signers := []*ecdsa.PrivateKey{testSigner(t), testSigner(t), testSigner(t)}
	s, err := NewEVMSettler(nil, signers, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[int]bool{}
	for i := 0; i < 6; i++ {
		idx := int(s.signerIndex.Add(1) % uint64(len(s.signers)))
		seen[idx] = true
	}
	if len(seen) != len(signers) {
		t.Fatalf("expected round-robin to cycle through all %d signers, saw %d distinct indices", len(signers), len(seen))
	}
}
