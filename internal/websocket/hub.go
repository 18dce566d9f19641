// Package websocket pushes dataset lifecycle events to connected dashboard
// clients so they can refetch after a reload.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is one event pushed to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// DatasetReloadedData is the payload of a dataset_reloaded event.
type DatasetReloadedData struct {
	Fingerprint string `json:"fingerprint"`
	Rows        int    `json:"rows"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
}

// NewHub creates a hub. Call Start before use.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger.With(slog.String("component", "websocket_hub")),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 16),
		done:       make(chan struct{}),
	}
}

// Start launches the hub loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop terminates the hub loop and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", slog.Int("clients", h.ClientCount()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", slog.Int("clients", h.ClientCount()))

		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to marshal broadcast", slog.String("error", err.Error()))
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message", slog.String("type", msg.Type))
	}
}

// NotifyDatasetReloaded implements the services.ReloadNotifier interface.
func (h *Hub) NotifyDatasetReloaded(fingerprint string, rows int) {
	h.Broadcast(Message{
		Type: "dataset_reloaded",
		Data: DatasetReloadedData{Fingerprint: fingerprint, Rows: rows},
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin dashboard plus local development.
		return true
	},
}

// ServeHTTP upgrades the connection and attaches a client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h, conn)
	h.register <- client

	go client.writePump()
	go client.readPump()
}
