package identity

import (
	"testing"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
)

func TestSignVerify(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	msg := []byte("log trade")
	sig := kp.Sign(msg)

	if !Verify(kp.Identity(), msg, sig) {
		t.Error("valid signature rejected")
	}
	if Verify(kp.Identity(), []byte("other message"), sig) {
		t.Error("signature accepted for a different message")
	}

	other, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if Verify(other.Identity(), msg, sig) {
		t.Error("signature accepted for a different identity")
	}
}

func TestGenerateDistinctIdentities(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Identity() == b.Identity() {
		t.Error("two generated keypairs share an identity")
	}
}

func TestFromSeedRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	restored, err := FromSeed(kp.Seed())
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if restored.Identity() != kp.Identity() {
		t.Errorf("restored identity %s, want %s", restored.Identity(), kp.Identity())
	}

	msg := []byte("log trade")
	if !Verify(kp.Identity(), msg, restored.Sign(msg)) {
		t.Error("restored keypair's signature rejected")
	}

	if _, err := FromSeed([]byte("short")); err == nil {
		t.Error("undersized seed accepted")
	}
}

func TestOnCurve(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !OnCurve(kp.Identity()) {
		t.Error("generated public key reported off-curve")
	}

	// Derived addresses are hash outputs; they should not look like keys.
	addr := addressing.UserStateAddress(kp.Identity())
	var asIdentity domain.Identity
	copy(asIdentity[:], addr[:])
	if OnCurve(asIdentity) {
		t.Skip("derived address happened to land on the curve")
	}
}
