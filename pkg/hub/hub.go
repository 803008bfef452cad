// Package hub fans world-state updates out to websocket clients using
// a channel-based broadcast loop. Clients that cannot keep up are
// dropped rather than allowed to stall the broadcaster.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub tracks connected clients and broadcasts snapshots to all of them.
type Hub struct {
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// mu guards clients for ClientCount; the run loop owns mutation.
	mu sync.RWMutex
}

// New creates a hub. Call Run in a goroutine before serving clients.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With("component", "hub"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. It exits when ctx is cancelled, closing all
// client send channels so their write pumps terminate.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client_id", client.id, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "client_id", client.id, "total", count)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Send buffer full, the client is too slow.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client", "client_id", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues data for delivery to every connected client. It
// never blocks; under burst the update is dropped, the next snapshot
// supersedes it anyway.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping update")
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
