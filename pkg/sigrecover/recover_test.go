package sigrecover

import (
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestRecoverMatchesSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)

	var digest [32]byte
	if _, err := rand.Read(digest[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}

	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := Recover(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if got != want {
		t.Errorf("recovered %s, want %s", got.Hex(), want.Hex())
	}
}

func TestRecoverAcceptsLegacyVValues(t *testing.T) {
	key, _ := crypto.GenerateKey()
	want := crypto.PubkeyToAddress(key.PublicKey)

	var digest [32]byte
	if _, err := rand.Read(digest[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	sig, _ := crypto.Sign(digest[:], key)

	legacy := make([]byte, 65)
	copy(legacy, sig)
	legacy[64] += 27

	got, err := Recover(digest, legacy)
	if err != nil {
		t.Fatalf("recover with legacy v: %v", err)
	}
	if got != want {
		t.Errorf("recovered %s, want %s", got.Hex(), want.Hex())
	}
}

func TestRecoverRejectsWrongLength(t *testing.T) {
	var digest [32]byte
	if _, err := Recover(digest, make([]byte, 64)); err == nil {
		t.Error("expected error for 64-byte signature")
	}
}

func TestRecoverMutatedDigestYieldsDifferentAddress(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signer := crypto.PubkeyToAddress(key.PublicKey)

	var digest [32]byte
	if _, err := rand.Read(digest[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	sig, _ := crypto.Sign(digest[:], key)

	mutated := digest
	mutated[0] ^= 0xFF

	got, err := Recover(mutated, sig)
	if err == nil && got == signer {
		t.Error("mutated digest should not recover to the original signer")
	}
}
