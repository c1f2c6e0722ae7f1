package addressing

import (
	"bytes"
	"errors"
	"testing"

	"swap-ledger/internal/domain"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestDeriveDeterministic(t *testing.T) {
	a1, err := Derive(NamespaceUserState, []byte("seed-a"), []byte("seed-b"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	a2, err := Derive(NamespaceUserState, []byte("seed-a"), []byte("seed-b"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a1 != a2 {
		t.Errorf("same inputs derived different addresses: %s vs %s", a1, a2)
	}
}

func TestDeriveNamespaceSeparation(t *testing.T) {
	user := testIdentity(1)

	fromConfig, err := Derive(NamespaceConfig, user[:])
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	fromUserState, err := Derive(NamespaceUserState, user[:])
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if fromConfig == fromUserState {
		t.Error("identical seeds under different namespaces derived the same address")
	}
}

// The length prefixes must keep seed boundaries unambiguous: splitting the
// same bytes differently has to produce a different address.
func TestDeriveSeedBoundaries(t *testing.T) {
	a1, err := Derive(NamespaceTradeRecord, []byte("ab"), []byte("c"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	a2, err := Derive(NamespaceTradeRecord, []byte("a"), []byte("bc"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a1 == a2 {
		t.Error("different seed splits derived the same address")
	}
}

func TestDeriveSeedTooLong(t *testing.T) {
	_, err := Derive(NamespaceConfig, make([]byte, MaxSeedLen+1))
	if !errors.Is(err, ErrSeedTooLong) {
		t.Errorf("expected ErrSeedTooLong, got %v", err)
	}
}

func TestDeriveTooManySeeds(t *testing.T) {
	seeds := make([][]byte, MaxSeeds+1)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, err := Derive(NamespaceConfig, seeds...)
	if !errors.Is(err, ErrTooManySeeds) {
		t.Errorf("expected ErrTooManySeeds, got %v", err)
	}
}

func TestConfigAddressSingleton(t *testing.T) {
	if ConfigAddress() != ConfigAddress() {
		t.Error("config address is not stable")
	}
	var zero domain.Address
	if ConfigAddress() == zero {
		t.Error("config address is the zero address")
	}
}

func TestUserStateAddressPerUser(t *testing.T) {
	a := UserStateAddress(testIdentity(1))
	b := UserStateAddress(testIdentity(2))
	if a == b {
		t.Error("distinct users derived the same user-state address")
	}
}

func TestTradeRecordAddressPerSequence(t *testing.T) {
	user := testIdentity(7)

	seen := make(map[domain.Address]uint64)
	for seq := uint64(0); seq < 64; seq++ {
		addr := TradeRecordAddress(user, seq)
		if prev, ok := seen[addr]; ok {
			t.Fatalf("sequences %d and %d derived the same address", prev, seq)
		}
		seen[addr] = seq
	}

	// The same slot for another user must not collide either.
	other := TradeRecordAddress(testIdentity(8), 0)
	if _, ok := seen[other]; ok {
		t.Error("another user's record address collides with the first user's")
	}
}

// The sequence seed is fixed-width little-endian, so sequences whose natural
// big-endian encodings would share a prefix still derive distinct addresses.
func TestTradeRecordAddressSequenceEncoding(t *testing.T) {
	user := testIdentity(3)
	if TradeRecordAddress(user, 1) == TradeRecordAddress(user, 1<<32) {
		t.Error("sequence encoding aliases 1 and 1<<32")
	}
}

func TestDeriveEmptySeedDiffersFromNoSeed(t *testing.T) {
	withEmpty, err := Derive(NamespaceConfig, []byte{})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	without := ConfigAddress()
	if bytes.Equal(withEmpty[:], without[:]) {
		t.Error("empty seed and absent seed derive the same address")
	}
}
