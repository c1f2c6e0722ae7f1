package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentityLen is the byte length of an identity (ed25519 public key).
const IdentityLen = 32

// Identity is an opaque, comparable account identity. It is the raw 32-byte
// ed25519 public key of a wallet; the text form is base58.
type Identity [IdentityLen]byte

// ParseIdentity decodes a base58-encoded identity string.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("decode identity: %w", err)
	}
	if len(raw) != IdentityLen {
		return id, fmt.Errorf("decode identity: got %d bytes, want %d", len(raw), IdentityLen)
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the base58 text form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether the identity is the all-zero value.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// MarshalJSON encodes the identity as a base58 string.
func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the identity from a base58 string.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseIdentity(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
