package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/notify"
)

// Hub fans the all-rooms change feed out to every connected client.
// There is one hub per server process; all state changes go through
// the Run loop sequentially.
type Hub struct {
	// Registered clients (only accessed by hub goroutine)
	clients map[*Client]bool

	// Outbound events to fan out
	broadcast chan notify.Event

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Shutdown signal
	shutdown chan struct{}

	// Metrics
	metrics *HubMetrics

	log *slog.Logger
}

type HubMetrics struct {
	ConnectedClients int
	MessagesSent     int64
	MessagesDropped  int64
	LastActivity     time.Time
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan notify.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		metrics:    &HubMetrics{LastActivity: time.Now()},
		log:        log,
	}
}

// Run is the main event loop - handles ALL state changes sequentially
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case event := <-h.broadcast:
			h.handleBroadcast(event)

		case <-h.shutdown:
			h.handleShutdown()
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.metrics.ConnectedClients = len(h.clients)

	h.log.Info("feed client registered",
		"user_id", client.userID,
		"total_clients", len(h.clients),
	)

	ack := ServerMessage{
		Type:      TypeConnectionAck,
		Data:      map[string]any{"user_id": client.userID},
		Timestamp: time.Now().Unix(),
	}
	if data, err := json.Marshal(ack); err == nil {
		client.trySend(data)
	}
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send) // Signal client to stop
		h.metrics.ConnectedClients = len(h.clients)

		h.log.Info("feed client unregistered",
			"user_id", client.userID,
			"remaining_clients", len(h.clients),
		)
	}
}

func (h *Hub) handleBroadcast(event notify.Event) {
	h.metrics.LastActivity = time.Now()

	message := ServerMessage{
		Type:      TypeRoomChanged,
		Data:      event,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal feed message", "error", err)
		return
	}

	// Send to all clients
	for client := range h.clients {
		select {
		case client.send <- data:
			h.metrics.MessagesSent++
		default:
			// Client is too slow, disconnect it
			h.log.Warn("feed client buffer full, disconnecting",
				"user_id", client.userID,
			)
			h.metrics.MessagesDropped++
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleShutdown() {
	h.log.Info("shutting down feed hub")

	for client := range h.clients {
		close(client.send)
		client.close("server shutting down")
	}

	h.clients = nil
}

// Broadcast queues a change event for fan-out. Events are dropped if
// the hub is saturated; clients recover by refetching the room list.
func (h *Hub) Broadcast(event notify.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Error("feed broadcast channel full, dropping event",
			"room_id", event.RoomID)
		h.metrics.MessagesDropped++
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
