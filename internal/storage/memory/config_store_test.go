package memory

import (
	"context"
	"errors"
	"testing"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestConfigStore_CreateAndGet(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()
	addr := addressing.ConfigAddress()

	cfg := &domain.Config{
		Admin:           testIdentity(1),
		Whitelist:       []domain.Identity{testIdentity(2), testIdentity(3)},
		ProtocolVersion: 1,
		CreatedAt:       1700000000000,
	}

	if err := store.Create(ctx, addr, cfg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Admin != testIdentity(1) {
		t.Errorf("Admin mismatch: got %s", got.Admin)
	}
	if len(got.Whitelist) != 2 {
		t.Errorf("Whitelist length = %d, want 2", len(got.Whitelist))
	}
	if got.ProtocolVersion != 1 {
		t.Errorf("ProtocolVersion = %d, want 1", got.ProtocolVersion)
	}
}

func TestConfigStore_Duplicate(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()
	addr := addressing.ConfigAddress()

	cfg := &domain.Config{Admin: testIdentity(1), ProtocolVersion: 1}

	if err := store.Create(ctx, addr, cfg); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	err := store.Create(ctx, addr, cfg)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestConfigStore_NotFound(t *testing.T) {
	store := NewConfigStore()

	_, err := store.Get(context.Background(), addressing.ConfigAddress())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConfigStore_GetReturnsCopy(t *testing.T) {
	store := NewConfigStore()
	ctx := context.Background()
	addr := addressing.ConfigAddress()

	cfg := &domain.Config{
		Admin:     testIdentity(1),
		Whitelist: []domain.Identity{testIdentity(2)},
	}
	if err := store.Create(ctx, addr, cfg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, _ := store.Get(ctx, addr)
	got.Whitelist[0] = testIdentity(9)

	again, _ := store.Get(ctx, addr)
	if again.Whitelist[0] != testIdentity(2) {
		t.Error("Stored whitelist mutated through returned copy")
	}
}
