package events

import (
	"sync"
	"testing"

	"swap-ledger/internal/domain"
)

func testEvent(seq uint64) domain.TradeEvent {
	var user domain.Identity
	user[0] = 1
	return domain.TradeEvent{User: user, Sequence: seq, Amount: 100}
}

func TestChannelEmitterDelivers(t *testing.T) {
	emitter := NewChannelEmitter(4, nil)

	emitter.Emit(testEvent(0))
	emitter.Emit(testEvent(1))

	got := <-emitter.Events()
	if got.Sequence != 0 {
		t.Errorf("first event sequence = %d, want 0", got.Sequence)
	}
	got = <-emitter.Events()
	if got.Sequence != 1 {
		t.Errorf("second event sequence = %d, want 1", got.Sequence)
	}
}

// Emit must never block the caller: once the buffer is full the overflow is
// dropped.
func TestChannelEmitterDropsWhenFull(t *testing.T) {
	emitter := NewChannelEmitter(2, nil)

	for seq := uint64(0); seq < 5; seq++ {
		emitter.Emit(testEvent(seq)) // would deadlock here if Emit blocked
	}

	if got := <-emitter.Events(); got.Sequence != 0 {
		t.Errorf("kept event sequence = %d, want 0", got.Sequence)
	}
	if got := <-emitter.Events(); got.Sequence != 1 {
		t.Errorf("kept event sequence = %d, want 1", got.Sequence)
	}
	select {
	case got := <-emitter.Events():
		t.Errorf("expected overflow to be dropped, got sequence %d", got.Sequence)
	default:
	}
}

type countingEmitter struct {
	mu    sync.Mutex
	count int
	last  domain.TradeEvent
}

func (c *countingEmitter) Emit(event domain.TradeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.last = event
}

func TestMultiEmitterFansOut(t *testing.T) {
	a := &countingEmitter{}
	b := &countingEmitter{}
	multi := MultiEmitter{a, b, NopEmitter{}}

	multi.Emit(testEvent(7))

	if a.count != 1 || b.count != 1 {
		t.Errorf("fan-out counts = %d, %d; want 1, 1", a.count, b.count)
	}
	if a.last.Sequence != 7 || b.last.Sequence != 7 {
		t.Error("fan-out delivered a different event")
	}
}
