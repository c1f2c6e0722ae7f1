package events

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"swap-ledger/internal/domain"
)

func dialBroadcaster(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial broadcaster: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestBroadcasterDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0), nil)
	defer b.Close()
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dialBroadcaster(t, server)
	defer conn.Close()

	// The subscriber registers asynchronously after the upgrade; retry the
	// first emit until it lands.
	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)
	var got domain.TradeEvent
	for {
		b.Emit(testEvent(7))
		conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if time.Now().After(deadline) {
				t.Fatalf("no event delivered: %v", err)
			}
			continue
		}
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		break
	}
	if got.Sequence != 7 {
		t.Errorf("delivered sequence = %d, want 7", got.Sequence)
	}
}

// A subscriber that stops reading must cost the write path nothing: its
// queue fills, overflow is dropped, and Emit keeps returning immediately.
func TestBroadcasterStalledSubscriberDoesNotBlockEmit(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0), nil)
	defer b.Close()
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dialBroadcaster(t, server)
	defer conn.Close()
	// Never read from conn.

	done := make(chan struct{})
	go func() {
		defer close(done)
		for seq := uint64(0); seq < subscriberBuffer*4; seq++ {
			b.Emit(testEvent(seq))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked on a subscriber that stopped reading")
	}
}

func TestBroadcasterCloseDisconnectsSubscribers(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0), nil)
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	conn := dialBroadcaster(t, server)
	defer conn.Close()

	b.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("read succeeded after Close, want connection error")
	}

	// Emitting after Close must be a no-op, not a panic.
	b.Emit(testEvent(1))
}
