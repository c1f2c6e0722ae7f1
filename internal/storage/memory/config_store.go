package memory

import (
	"context"
	"sync"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// ConfigStore is an in-memory implementation of storage.ConfigStore.
type ConfigStore struct {
	mu   sync.RWMutex
	data map[domain.Address]*domain.Config
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		data: make(map[domain.Address]*domain.Config),
	}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// Create stores the config at addr. Returns ErrDuplicateKey if one exists.
func (s *ConfigStore) Create(_ context.Context, addr domain.Address, c *domain.Config) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[addr]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *c
	cp.Whitelist = append([]domain.Identity(nil), c.Whitelist...)
	s.data[addr] = &cp
	return nil
}

// Get retrieves the config at addr. Returns ErrNotFound if not exists.
func (s *ConfigStore) Get(_ context.Context, addr domain.Address) (*domain.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[addr]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *c
	cp.Whitelist = append([]domain.Identity(nil), c.Whitelist...)
	return &cp, nil
}
