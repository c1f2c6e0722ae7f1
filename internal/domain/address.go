package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLen is the byte length of a derived storage address.
const AddressLen = 32

// Address is a derived storage key. It is a pure function of a namespace tag
// and seed fields, so any party can locate a record without a lookup index.
type Address [AddressLen]byte

// ParseAddress decodes a base58-encoded address string.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != AddressLen {
		return a, fmt.Errorf("decode address: got %d bytes, want %d", len(raw), AddressLen)
	}
	copy(a[:], raw)
	return a, nil
}

// String returns the base58 text form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalJSON encodes the address as a base58 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes the address from a base58 string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
