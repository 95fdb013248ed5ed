package overlay

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/raidtimers/internal/game/alert"
)

// Hub fans presentation events out to every connected overlay client.
// It implements alert.Sink: Publish never blocks, a client whose send
// queue is full misses the message.
type Hub struct {
	queueSize int

	mu      sync.Mutex
	clients map[*client]struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

var _ alert.Sink = (*Hub)(nil)

// NewHub creates a hub with per-client queues of queueSize messages.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		queueSize: queueSize,
		clients:   make(map[*client]struct{}),
	}
}

// Publish encodes ev and queues it on every client.
func (h *Hub) Publish(ev alert.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		slog.Warn("overlay event dropped", "event", ev.Kind, "error", err)
		return
	}
	h.published.Add(1)
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
			slog.Debug("overlay client queue full", "client", c.id)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns the number of per-client messages lost to full queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Published returns the number of events encoded for broadcast.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	slog.Info("overlay client connected", "client", c.id, "remote", c.remote, "clients", n)
}

// unregister removes c and closes its send queue, which ends its writer.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	slog.Info("overlay client disconnected", "client", c.id, "clients", n)
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}
