package clickhouse

import (
	"context"
	"fmt"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// TradeEventStore implements storage.TradeEventStore using ClickHouse. It is
// the archive behind the event emitter: indexers and analytics query it, the
// ledger never reads it back.
type TradeEventStore struct {
	conn *Conn
}

// NewTradeEventStore creates a new TradeEventStore.
func NewTradeEventStore(conn *Conn) *TradeEventStore {
	return &TradeEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

// InsertBatch appends a batch of events. MergeTree does not enforce
// uniqueness; duplicates from emitter retries are tolerated and collapse in
// indexer queries keyed by (user, sequence).
func (s *TradeEventStore) InsertBatch(ctx context.Context, events []*domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_events (
			trade_id, user, sequence, trade_type,
			token_in, token_out, amount, price,
			slippage_bps, tag, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.TradeID.String(), e.User.String(), e.Sequence, e.TradeType,
			e.TokenIn.String(), e.TokenOut.String(), e.Amount, e.Price,
			e.SlippageBps, e.Tag.String(), uint64(e.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
