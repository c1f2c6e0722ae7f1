package domain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Trade type tags. Stored as an opaque uint8; the enumeration is a config
// detail of the deployment.
const (
	TradeTypeSwap         uint8 = 0
	TradeTypeLiquidityAdd uint8 = 1
)

// TagLen is the fixed byte length of a trade tag.
const TagLen = 16

// ErrInvalidTagLength is returned when a tag input exceeds TagLen bytes.
// Oversized tags fail loudly rather than being silently truncated, so a
// caller-side dedupe label is never mangled on write.
var ErrInvalidTagLength = errors.New("tag exceeds 16 bytes")

// Tag is a fixed-size opaque label attached to a trade. Short inputs are
// null-padded on write; trailing nulls are trimmed on read.
type Tag [TagLen]byte

// NewTag builds a Tag from a string, null-padding short inputs.
func NewTag(s string) (Tag, error) {
	var t Tag
	if len(s) > TagLen {
		return t, ErrInvalidTagLength
	}
	copy(t[:], s)
	return t, nil
}

// String returns the tag with trailing nulls trimmed.
func (t Tag) String() string {
	return string(bytes.TrimRight(t[:], "\x00"))
}

// MarshalJSON encodes the tag as its trimmed string form.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the tag from a string, null-padding it.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewTag(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TradeIDLen is the byte length of a trade id.
const TradeIDLen = 32

// TradeID is the deterministic keccak-256 hash identifying a trade record's
// content, independent of its storage address.
type TradeID [TradeIDLen]byte

// ParseTradeID decodes a hex-encoded trade id (64 characters).
func ParseTradeID(s string) (TradeID, error) {
	var id TradeID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("decode trade id: %w", err)
	}
	if len(raw) != TradeIDLen {
		return id, fmt.Errorf("decode trade id: got %d bytes, want %d", len(raw), TradeIDLen)
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the hex text form (64 characters).
func (id TradeID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalJSON encodes the trade id as a hex string.
func (id TradeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the trade id from a hex string.
func (id *TradeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTradeID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TradeInput carries the caller-supplied fields of a trade to be logged.
type TradeInput struct {
	TradeType uint8    // 0 = swap, 1 = liquidity add, etc.
	TokenIn   Identity // input asset, must be whitelisted
	TokenOut  Identity // output asset, must be whitelisted
	Amount    uint64   // amount of token_in, must be nonzero
	Price     uint64   // execution price (unitless or chosen unit)

	// SlippageBps is slippage in basis points (50 = 0.50%). The value is
	// caller-attested metadata and stored verbatim; no [0, 10000] range is
	// enforced.
	SlippageBps uint16

	Tag Tag // optional 16-byte label
}

// TradeRecord is one immutable logged trade. Its storage address is a pure
// function of (user, sequence), so records can never collide or be
// overwritten, and sequence values for a user are gap-free from 0.
type TradeRecord struct {
	Address Address // derived "trade-record" address

	User     Identity // owner identity
	Sequence uint64   // the owner's trade count at logging time (pre-increment)

	TradeType   uint8
	TokenIn     Identity
	TokenOut    Identity
	Amount      uint64
	Price       uint64
	SlippageBps uint16
	Tag         Tag

	TradeID   TradeID // deterministic content hash
	Timestamp int64   // ledger-assigned write time, Unix milliseconds
}

// Event returns the TradeEvent mirroring this record.
func (t *TradeRecord) Event() TradeEvent {
	return TradeEvent{
		TradeID:     t.TradeID,
		User:        t.User,
		Sequence:    t.Sequence,
		TradeType:   t.TradeType,
		TokenIn:     t.TokenIn,
		TokenOut:    t.TokenOut,
		Amount:      t.Amount,
		Price:       t.Price,
		SlippageBps: t.SlippageBps,
		Tag:         t.Tag,
		Timestamp:   t.Timestamp,
	}
}
