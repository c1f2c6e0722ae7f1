// Package idhash computes deterministic record identifiers.
package idhash

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"swap-ledger/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using Keccak-256.
// Formula: Keccak256(user | sequence | token_in | token_out | amount | price)
// with integers encoded as fixed-width little-endian bytes. Every field is
// fixed width, so the concatenation is unambiguous. Identical fields always
// yield the identical id; any sequence difference yields a different id.
func ComputeTradeID(
	user domain.Identity,
	sequence uint64,
	tokenIn domain.Identity,
	tokenOut domain.Identity,
	amount uint64,
	price uint64,
) domain.TradeID {
	var buf [8]byte

	h := sha3.NewLegacyKeccak256()
	h.Write(user[:])
	binary.LittleEndian.PutUint64(buf[:], sequence)
	h.Write(buf[:])
	h.Write(tokenIn[:])
	h.Write(tokenOut[:])
	binary.LittleEndian.PutUint64(buf[:], amount)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], price)
	h.Write(buf[:])

	var id domain.TradeID
	copy(id[:], h.Sum(nil))
	return id
}
