package postgres

import (
	"context"
	"fmt"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// UserStateStore implements storage.UserStateStore using PostgreSQL.
type UserStateStore struct {
	pool *Pool
}

// NewUserStateStore creates a new UserStateStore.
func NewUserStateStore(pool *Pool) *UserStateStore {
	return &UserStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStateStore = (*UserStateStore)(nil)

// Create stores a fresh user state at addr. Returns ErrDuplicateKey if one exists.
func (s *UserStateStore) Create(ctx context.Context, addr domain.Address, st *domain.UserState) error {
	if st == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_states (address, owner, trade_count)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, addr[:], st.Owner[:], int64(st.TradeCount))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user state: %w", err)
	}
	return nil
}

// Get retrieves the state at addr. Returns ErrNotFound if not exists.
func (s *UserStateStore) Get(ctx context.Context, addr domain.Address) (*domain.UserState, error) {
	query := `
		SELECT owner, trade_count
		FROM user_states
		WHERE address = $1
	`

	var (
		owner      []byte
		tradeCount int64
	)
	err := s.pool.QueryRow(ctx, query, addr[:]).Scan(&owner, &tradeCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user state: %w", err)
	}

	st := &domain.UserState{TradeCount: uint64(tradeCount)}
	copy(st.Owner[:], owner)
	return st, nil
}

// CompareAndIncrement increments the trade count at addr by 1 only if the
// current count equals expected. The guard is pushed into the UPDATE
// predicate so the read-modify-write is a single atomic statement.
func (s *UserStateStore) CompareAndIncrement(ctx context.Context, addr domain.Address, expected uint64) error {
	query := `
		UPDATE user_states
		SET trade_count = trade_count + 1
		WHERE address = $1 AND trade_count = $2
	`

	tag, err := s.pool.Exec(ctx, query, addr[:], int64(expected))
	if err != nil {
		return fmt.Errorf("increment trade count: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No row matched: distinguish a missing state from a stale counter.
	if _, err := s.Get(ctx, addr); err != nil {
		return err
	}
	return storage.ErrStaleCounter
}

// List retrieves all user states, ordered by owner identity bytes.
func (s *UserStateStore) List(ctx context.Context) ([]*domain.UserState, error) {
	query := `
		SELECT owner, trade_count
		FROM user_states
		ORDER BY owner ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list user states: %w", err)
	}
	defer rows.Close()

	var states []*domain.UserState
	for rows.Next() {
		var (
			owner      []byte
			tradeCount int64
		)
		if err := rows.Scan(&owner, &tradeCount); err != nil {
			return nil, fmt.Errorf("scan user state: %w", err)
		}
		st := &domain.UserState{TradeCount: uint64(tradeCount)}
		copy(st.Owner[:], owner)
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user states: %w", err)
	}
	return states, nil
}
