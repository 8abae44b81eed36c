package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second
)

// Client represents a single change-feed WebSocket connection
type Client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	log    *slog.Logger
}

// NewClient creates a new client instance
func NewClient(userID uuid.UUID, conn *websocket.Conn, hub *Hub, log *slog.Logger) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 64),
		log:    log,
	}
}

// readPump drains the connection until the peer goes away. Clients
// never send anything meaningful on the feed; reading is how we detect
// disconnects.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				c.log.Debug("feed client disconnected normally",
					"user_id", c.userID,
				)
			} else {
				c.log.Warn("feed read error",
					"user_id", c.userID,
					"error", err,
				)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.Close(websocket.StatusNormalClosure, "hub closed channel")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Error("failed to write feed message",
					"user_id", c.userID,
					"error", err,
				)
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Warn("failed to ping feed client",
					"user_id", c.userID,
					"error", err,
				)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// trySend queues data without blocking the hub loop
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) close(reason string) {
	c.conn.Close(websocket.StatusGoingAway, reason)
}
