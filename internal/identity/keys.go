// Package identity supplies verifiable account identities for the ledger:
// ed25519 keypairs whose public keys double as domain.Identity values.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"

	"swap-ledger/internal/domain"
)

// Keypair is an ed25519 signing keypair.
type Keypair struct {
	priv ed25519.PrivateKey
	id   domain.Identity
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	var id domain.Identity
	copy(id[:], pub)
	return &Keypair{priv: priv, id: id}, nil
}

// FromSeed reconstructs a keypair from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var id domain.Identity
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{priv: priv, id: id}, nil
}

// Identity returns the public identity of the keypair.
func (k *Keypair) Identity() domain.Identity {
	return k.id
}

// Seed returns the 32-byte seed the keypair can be reconstructed from.
func (k *Keypair) Seed() []byte {
	return k.priv.Seed()
}

// Sign signs a message with the private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// Verify reports whether sig is a valid signature of message by id.
func Verify(id domain.Identity, message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(id[:]), message, sig)
}

// OnCurve reports whether the identity is a valid ed25519 curve point, i.e.
// a key that can actually sign. Derived addresses are hash outputs and fall
// off the curve with overwhelming probability, so this distinguishes wallet
// identities from storage addresses masquerading as identities.
func OnCurve(id domain.Identity) bool {
	_, err := new(edwards25519.Point).SetBytes(id[:])
	return err == nil
}
