package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// Create stores a new trade record at addr. Returns ErrDuplicateKey if a
// record already exists there.
func (s *TradeRecordStore) Create(ctx context.Context, addr domain.Address, t *domain.TradeRecord) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (
			address, trade_id, user_identity, sequence,
			trade_type, token_in, token_out,
			amount, price, slippage_bps, tag, timestamp_ms
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12
		)
	`

	_, err := s.pool.Exec(ctx, query,
		addr[:], t.TradeID[:], t.User[:], int64(t.Sequence),
		int16(t.TradeType), t.TokenIn[:], t.TokenOut[:],
		int64(t.Amount), int64(t.Price), int32(t.SlippageBps), t.Tag[:], t.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// Get retrieves the record at addr. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) Get(ctx context.Context, addr domain.Address) (*domain.TradeRecord, error) {
	query := `
		SELECT address, trade_id, user_identity, sequence,
			trade_type, token_in, token_out,
			amount, price, slippage_bps, tag, timestamp_ms
		FROM trade_records
		WHERE address = $1
	`

	t, err := scanTradeRecord(s.pool.QueryRow(ctx, query, addr[:]))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record: %w", err)
	}
	return t, nil
}

// ListByUser retrieves all records for a user, ordered by sequence ASC.
// sequence is stored as signed BIGINT; the +1 counter can never reach the
// 2^63 values where signed ordering would diverge from uint64 ordering.
func (s *TradeRecordStore) ListByUser(ctx context.Context, user domain.Identity) ([]*domain.TradeRecord, error) {
	query := `
		SELECT address, trade_id, user_identity, sequence,
			trade_type, token_in, token_out,
			amount, price, slippage_bps, tag, timestamp_ms
		FROM trade_records
		WHERE user_identity = $1
		ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, user[:])
	if err != nil {
		return nil, fmt.Errorf("list trade records: %w", err)
	}
	defer rows.Close()

	var records []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return records, nil
}

// scanTradeRecord scans one trade record row.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		address, tradeID, user  []byte
		tokenIn, tokenOut, tag  []byte
		sequence, amount, price int64
		tradeType               int16
		slippageBps             int32
		timestampMs             int64
	)
	err := row.Scan(
		&address, &tradeID, &user, &sequence,
		&tradeType, &tokenIn, &tokenOut,
		&amount, &price, &slippageBps, &tag, &timestampMs,
	)
	if err != nil {
		return nil, err
	}

	t := &domain.TradeRecord{
		Sequence:    uint64(sequence),
		TradeType:   uint8(tradeType),
		Amount:      uint64(amount),
		Price:       uint64(price),
		SlippageBps: uint16(slippageBps),
		Timestamp:   timestampMs,
	}
	copy(t.Address[:], address)
	copy(t.TradeID[:], tradeID)
	copy(t.User[:], user)
	copy(t.TokenIn[:], tokenIn)
	copy(t.TokenOut[:], tokenOut)
	copy(t.Tag[:], tag)
	return t, nil
}
