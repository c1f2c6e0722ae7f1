// Package storage defines the key-addressed store interfaces backing the
// ledger. All writes are create-if-absent or precondition-guarded updates;
// no interface allows overwriting an existing record.
package storage

import (
	"context"

	"swap-ledger/internal/domain"
)

// ConfigStore provides access to the singleton config record.
type ConfigStore interface {
	// Create stores the config at addr. Returns ErrDuplicateKey if a config
	// already exists there.
	Create(ctx context.Context, addr domain.Address, c *domain.Config) error

	// Get retrieves the config at addr. Returns ErrNotFound if not exists.
	Get(ctx context.Context, addr domain.Address) (*domain.Config, error)
}

// UserStateStore provides access to per-user state records.
type UserStateStore interface {
	// Create stores a fresh user state at addr. Returns ErrDuplicateKey if
	// one already exists there.
	Create(ctx context.Context, addr domain.Address, s *domain.UserState) error

	// Get retrieves the state at addr. Returns ErrNotFound if not exists.
	Get(ctx context.Context, addr domain.Address) (*domain.UserState, error)

	// CompareAndIncrement atomically increments the trade count at addr by 1,
	// but only if the current count equals expected. Returns ErrStaleCounter
	// if the count has moved, ErrNotFound if no state exists at addr.
	CompareAndIncrement(ctx context.Context, addr domain.Address, expected uint64) error

	// List retrieves all user states, ordered by owner identity bytes.
	List(ctx context.Context) ([]*domain.UserState, error)
}

// TradeRecordStore provides access to immutable trade records.
type TradeRecordStore interface {
	// Create stores a new trade record at addr. Returns ErrDuplicateKey if a
	// record already exists there; existing records are never overwritten.
	Create(ctx context.Context, addr domain.Address, t *domain.TradeRecord) error

	// Get retrieves the record at addr. Returns ErrNotFound if not exists.
	Get(ctx context.Context, addr domain.Address) (*domain.TradeRecord, error)

	// ListByUser retrieves all records for a user, ordered by sequence ASC.
	ListByUser(ctx context.Context, user domain.Identity) ([]*domain.TradeRecord, error)
}

// TradeEventStore archives emitted trade events for off-chain consumers.
type TradeEventStore interface {
	// InsertBatch appends a batch of events. The archive is append-only and
	// best-effort: it sits behind the fire-and-forget emitter, so a failed
	// batch never affects the ledger records it mirrors.
	InsertBatch(ctx context.Context, events []*domain.TradeEvent) error
}
