package memory

import (
	"context"
	"sort"
	"sync"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[domain.Address]*domain.TradeRecord
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[domain.Address]*domain.TradeRecord),
	}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// Create stores a new trade record at addr. Returns ErrDuplicateKey if a
// record already exists there.
func (s *TradeRecordStore) Create(_ context.Context, addr domain.Address, t *domain.TradeRecord) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[addr]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[addr] = &cp
	return nil
}

// Get retrieves the record at addr. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) Get(_ context.Context, addr domain.Address) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[addr]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// ListByUser retrieves all records for a user, ordered by sequence ASC.
func (s *TradeRecordStore) ListByUser(_ context.Context, user domain.Identity) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.TradeRecord
	for _, t := range s.data {
		if t.User == user {
			cp := *t
			records = append(records, &cp)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Sequence < records[j].Sequence
	})
	return records, nil
}
