package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// UserStateStore is an in-memory implementation of storage.UserStateStore.
type UserStateStore struct {
	mu   sync.RWMutex
	data map[domain.Address]*domain.UserState
}

// NewUserStateStore creates a new in-memory user state store.
func NewUserStateStore() *UserStateStore {
	return &UserStateStore{
		data: make(map[domain.Address]*domain.UserState),
	}
}

// Compile-time interface check.
var _ storage.UserStateStore = (*UserStateStore)(nil)

// Create stores a fresh user state at addr. Returns ErrDuplicateKey if one exists.
func (s *UserStateStore) Create(_ context.Context, addr domain.Address, st *domain.UserState) error {
	if st == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[addr]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *st
	s.data[addr] = &cp
	return nil
}

// Get retrieves the state at addr. Returns ErrNotFound if not exists.
func (s *UserStateStore) Get(_ context.Context, addr domain.Address) (*domain.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[addr]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *st
	return &cp, nil
}

// CompareAndIncrement increments the trade count at addr by 1 only if the
// current count equals expected.
func (s *UserStateStore) CompareAndIncrement(_ context.Context, addr domain.Address, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.data[addr]
	if !exists {
		return storage.ErrNotFound
	}
	if st.TradeCount != expected {
		return storage.ErrStaleCounter
	}

	st.TradeCount++
	return nil
}

// List retrieves all user states, ordered by owner identity bytes.
func (s *UserStateStore) List(_ context.Context) ([]*domain.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]*domain.UserState, 0, len(s.data))
	for _, st := range s.data {
		cp := *st
		states = append(states, &cp)
	}

	sort.Slice(states, func(i, j int) bool {
		return bytes.Compare(states[i].Owner[:], states[j].Owner[:]) < 0
	})
	return states, nil
}
