package ws

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
)

type Handler struct {
	hub *Hub
	log *slog.Logger
}

func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
	}
}

// HandleRoomsFeed upgrades the connection and subscribes the caller to
// the all-rooms change feed. Auth middleware runs before this, so the
// user is already in the request context.
func (h *Handler) HandleRoomsFeed(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed",
			"user_id", userID,
			"error", err,
		)
		return
	}

	h.log.Info("establishing feed connection",
		"user_id", userID,
		"username", auth.GetUsername(r.Context()),
	)

	client := NewClient(userID, conn, h.hub, h.log)
	h.hub.register <- client

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}
