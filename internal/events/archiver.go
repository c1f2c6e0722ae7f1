package events

import (
	"context"
	"log"
	"time"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/observability"
	"swap-ledger/internal/storage"
)

// ArchiverConfig bounds archive batches.
type ArchiverConfig struct {
	// BatchSize flushes a batch once it reaches this many events.
	BatchSize int
	// FlushInterval flushes a partial batch after this long.
	FlushInterval time.Duration
}

// DefaultArchiverConfig returns default batching bounds.
func DefaultArchiverConfig() ArchiverConfig {
	return ArchiverConfig{
		BatchSize:     200,
		FlushInterval: 2 * time.Second,
	}
}

// Archiver drains a ChannelEmitter into an append-only event archive in
// batches. It sits behind the fire-and-forget emitter, so archive failures
// are logged and counted but never reach the ledger write path.
type Archiver struct {
	source  *ChannelEmitter
	store   storage.TradeEventStore
	config  ArchiverConfig
	logger  *log.Logger
	metrics *observability.Metrics
}

// NewArchiver creates an Archiver.
func NewArchiver(
	source *ChannelEmitter,
	store storage.TradeEventStore,
	config ArchiverConfig,
	logger *log.Logger,
	metrics *observability.Metrics,
) *Archiver {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultArchiverConfig().BatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultArchiverConfig().FlushInterval
	}
	return &Archiver{
		source:  source,
		store:   store,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Run consumes events until ctx is cancelled, then flushes what remains.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*domain.TradeEvent, 0, a.config.BatchSize)

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := a.store.InsertBatch(ctx, batch); err != nil {
			if a.logger != nil {
				a.logger.Printf("archive batch of %d events: %v", len(batch), err)
			}
			if a.metrics != nil {
				a.metrics.ArchiveErrors.Inc()
			}
		} else if a.metrics != nil {
			a.metrics.EventsArchived.Add(float64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// Final drain without blocking on an empty channel. The parent
			// context is already cancelled, so the last flush gets its own
			// short deadline.
			for {
				select {
				case event := <-a.source.Events():
					e := event
					batch = append(batch, &e)
				default:
					flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					flush(flushCtx)
					cancel()
					return
				}
			}
		case event := <-a.source.Events():
			e := event
			batch = append(batch, &e)
			if len(batch) >= a.config.BatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
