package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/observability"
)

const (
	// subscriberBuffer is the per-subscriber send queue depth. A subscriber
	// whose queue is full loses events rather than holding up Emit.
	subscriberBuffer = 256

	// writeTimeout bounds a single websocket write.
	writeTimeout = 10 * time.Second
)

// Broadcaster streams trade events to websocket subscribers. Emit never does
// network I/O: it enqueues onto per-subscriber buffers drained by one writer
// goroutine each, so a slow or dead subscriber drops events and is eventually
// disconnected instead of stalling the write path.
type Broadcaster struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	upgrader websocket.Upgrader
	logger   *log.Logger
	metrics  *observability.Metrics
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(logger *log.Logger, metrics *observability.Metrics) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]chan []byte),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		metrics:  metrics,
	}
}

// Compile-time interface check.
var _ Emitter = (*Broadcaster)(nil)

// Emit enqueues the event as a JSON text message for all subscribers. A
// subscriber with a full queue misses this event.
func (b *Broadcaster) Emit(event domain.TradeEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		if b.logger != nil {
			b.logger.Printf("marshal trade event: %v", err)
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, send := range b.clients {
		select {
		case send <- msg:
		default:
			if b.metrics != nil {
				b.metrics.EventsDropped.Inc()
			}
		}
	}
}

// Handler returns an http.HandlerFunc that upgrades subscribers.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			if b.logger != nil {
				b.logger.Printf("websocket upgrade: %v", err)
			}
			return
		}

		send := make(chan []byte, subscriberBuffer)
		b.mu.Lock()
		b.clients[conn] = send
		b.mu.Unlock()
		if b.metrics != nil {
			b.metrics.WSSubscribers.Inc()
		}

		go b.writeLoop(conn, send)

		// Drain the read side so pings and closes are processed.
		go func() {
			defer func() {
				b.mu.Lock()
				b.remove(conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// writeLoop drains one subscriber's queue onto its connection. It exits when
// the queue is closed by remove, or on a write error or deadline.
func (b *Broadcaster) writeLoop(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			if b.logger != nil {
				b.logger.Printf("websocket write: %v", err)
			}
			b.mu.Lock()
			b.remove(conn)
			b.mu.Unlock()
			return
		}
	}
}

// Close disconnects all subscribers.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		b.remove(conn)
		conn.Close()
	}
}

// remove deletes a client entry and closes its queue, ending its writeLoop.
// Caller holds b.mu.
func (b *Broadcaster) remove(conn *websocket.Conn) {
	send, ok := b.clients[conn]
	if !ok {
		return
	}
	delete(b.clients, conn)
	close(send)
	if b.metrics != nil {
		b.metrics.WSSubscribers.Dec()
	}
}
