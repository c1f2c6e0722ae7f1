// Package addressing implements deterministic derived addressing: a storage
// key is a pure function of a namespace tag and seed fields, so any party can
// compute a record's address from public identifying fields without a lookup
// index.
package addressing

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"swap-ledger/internal/domain"
)

// Namespace tags for the three record kinds.
const (
	NamespaceConfig      = "config"
	NamespaceUserState   = "user-state"
	NamespaceTradeRecord = "trade-record"
)

// Seed limits. Together with the 32-byte address these bound the key material
// a backing store has to accept.
const (
	MaxSeeds   = 16
	MaxSeedLen = 32
)

// Derivation errors.
var (
	// ErrSeedTooLong is returned when a single seed exceeds MaxSeedLen bytes.
	ErrSeedTooLong = errors.New("address derivation: seed too long")

	// ErrTooManySeeds is returned when more than MaxSeeds seeds are supplied.
	ErrTooManySeeds = errors.New("address derivation: too many seeds")
)

// Derive computes the address for a namespace tag and seed fields.
// Formula: SHA256 over the namespace and each seed, every field prefixed
// with its 4-byte little-endian length. The length prefixes make the
// encoding unambiguous: no two distinct (namespace, seeds) inputs share a
// preimage.
func Derive(namespace string, seeds ...[]byte) (domain.Address, error) {
	var addr domain.Address
	if len(seeds) > MaxSeeds {
		return addr, ErrTooManySeeds
	}

	h := sha256.New()
	var lenBuf [4]byte

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(namespace)))
	h.Write(lenBuf[:])
	h.Write([]byte(namespace))

	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return addr, ErrSeedTooLong
		}
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		h.Write(lenBuf[:])
		h.Write(seed)
	}

	copy(addr[:], h.Sum(nil))
	return addr, nil
}

// ConfigAddress returns the singleton config address (no seeds).
func ConfigAddress() domain.Address {
	addr, _ := Derive(NamespaceConfig)
	return addr
}

// UserStateAddress returns the user-state address for a user.
func UserStateAddress(user domain.Identity) domain.Address {
	addr, _ := Derive(NamespaceUserState, user[:])
	return addr
}

// TradeRecordAddress returns the trade-record address for (user, sequence).
// The sequence seed is a fixed-width 8-byte little-endian encoding: two
// distinct sequence numbers can never alias to the same seed bytes.
func TradeRecordAddress(user domain.Identity, sequence uint64) domain.Address {
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], sequence)
	addr, _ := Derive(NamespaceTradeRecord, user[:], seq[:])
	return addr
}
