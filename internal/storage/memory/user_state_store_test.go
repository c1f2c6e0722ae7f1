package memory

import (
	"context"
	"errors"
	"testing"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

func TestUserStateStore_CreateAndGet(t *testing.T) {
	store := NewUserStateStore()
	ctx := context.Background()

	user := testIdentity(1)
	addr := addressing.UserStateAddress(user)

	if err := store.Create(ctx, addr, &domain.UserState{Owner: user}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Owner != user {
		t.Errorf("Owner mismatch: got %s", got.Owner)
	}
	if got.TradeCount != 0 {
		t.Errorf("TradeCount = %d, want 0", got.TradeCount)
	}
}

func TestUserStateStore_Duplicate(t *testing.T) {
	store := NewUserStateStore()
	ctx := context.Background()

	user := testIdentity(1)
	addr := addressing.UserStateAddress(user)

	if err := store.Create(ctx, addr, &domain.UserState{Owner: user}); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	err := store.Create(ctx, addr, &domain.UserState{Owner: user})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestUserStateStore_CompareAndIncrement(t *testing.T) {
	store := NewUserStateStore()
	ctx := context.Background()

	user := testIdentity(1)
	addr := addressing.UserStateAddress(user)
	if err := store.Create(ctx, addr, &domain.UserState{Owner: user}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.CompareAndIncrement(ctx, addr, 0); err != nil {
		t.Fatalf("CompareAndIncrement failed: %v", err)
	}

	got, _ := store.Get(ctx, addr)
	if got.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1", got.TradeCount)
	}

	// Re-using the already-consumed expected value must fail.
	err := store.CompareAndIncrement(ctx, addr, 0)
	if !errors.Is(err, storage.ErrStaleCounter) {
		t.Errorf("Expected ErrStaleCounter, got %v", err)
	}

	got, _ = store.Get(ctx, addr)
	if got.TradeCount != 1 {
		t.Errorf("TradeCount after stale increment = %d, want 1", got.TradeCount)
	}
}

func TestUserStateStore_CompareAndIncrementMissing(t *testing.T) {
	store := NewUserStateStore()

	err := store.CompareAndIncrement(context.Background(), addressing.UserStateAddress(testIdentity(1)), 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserStateStore_List(t *testing.T) {
	store := NewUserStateStore()
	ctx := context.Background()

	for _, b := range []byte{3, 1, 2} {
		user := testIdentity(b)
		if err := store.Create(ctx, addressing.UserStateAddress(user), &domain.UserState{Owner: user}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	states, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("Expected 3 states, got %d", len(states))
	}
	for i, want := range []byte{1, 2, 3} {
		if states[i].Owner != testIdentity(want) {
			t.Errorf("states[%d].Owner = %s, want identity(%d)", i, states[i].Owner, want)
		}
	}
}
