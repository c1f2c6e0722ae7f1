// Package events delivers TradeEvent notifications to off-chain consumers.
// Every emitter is fire-and-forget: Emit never blocks the ledger write and
// never fails it; a lost notification cannot corrupt the underlying record.
package events

import (
	"swap-ledger/internal/domain"
	"swap-ledger/internal/observability"
)

// Emitter is the notification side-channel triggered on successful writes.
type Emitter interface {
	// Emit publishes one event. It must not block and must not fail the
	// caller.
	Emit(event domain.TradeEvent)
}

// NopEmitter discards all events.
type NopEmitter struct{}

// Emit discards the event.
func (NopEmitter) Emit(domain.TradeEvent) {}

// MultiEmitter fans an event out to several emitters.
type MultiEmitter []Emitter

// Emit publishes the event to every child emitter.
func (m MultiEmitter) Emit(event domain.TradeEvent) {
	for _, e := range m {
		e.Emit(event)
	}
}

// ChannelEmitter buffers events on a channel for a downstream consumer.
// When the buffer is full the event is dropped and counted rather than
// blocking the write path.
type ChannelEmitter struct {
	ch      chan domain.TradeEvent
	metrics *observability.Metrics
}

// NewChannelEmitter creates a ChannelEmitter with the given buffer size.
func NewChannelEmitter(buffer int, metrics *observability.Metrics) *ChannelEmitter {
	if buffer <= 0 {
		buffer = 1024
	}
	return &ChannelEmitter{
		ch:      make(chan domain.TradeEvent, buffer),
		metrics: metrics,
	}
}

// Compile-time interface check.
var _ Emitter = (*ChannelEmitter)(nil)

// Emit enqueues the event, dropping it if the buffer is full.
func (e *ChannelEmitter) Emit(event domain.TradeEvent) {
	select {
	case e.ch <- event:
		if e.metrics != nil {
			e.metrics.EventsEmitted.Inc()
			e.metrics.EventQueueSize.Set(float64(len(e.ch)))
		}
	default:
		if e.metrics != nil {
			e.metrics.EventsDropped.Inc()
		}
	}
}

// Events returns the receive side of the buffer.
func (e *ChannelEmitter) Events() <-chan domain.TradeEvent {
	return e.ch
}
