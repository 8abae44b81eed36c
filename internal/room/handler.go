package room

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/pkg/httputil"
)

type Handler struct {
	service   *Service
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(service *Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{service, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleListRooms, h.log))
	r.Post("/", httputil.Handler(h.HandleCreateRoom, h.log))
	r.Get("/code/{code}", httputil.Handler(h.HandleGetRoomByCode, h.log))
	r.Post("/code/{code}/join", httputil.Handler(h.HandleJoinRoom, h.log))
	r.Post("/code/{code}/leave", httputil.Handler(h.HandleLeaveRoom, h.log))
	r.Patch("/{roomID}", httputil.Handler(h.HandleUpdateRoom, h.log))
	r.Delete("/{roomID}", httputil.Handler(h.HandleDeleteRoom, h.log))
	r.Get("/{roomID}/participants", httputil.Handler(h.HandleGetParticipants, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// mapServiceError translates room errors into client-facing HTTP errors
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return httputil.BadRequest(err.Error())
	case errors.Is(err, ErrRoomNotFound):
		return httputil.NotFound("Invalid room code or room not found")
	case errors.Is(err, ErrRoomFull):
		return httputil.Conflict("Room is full")
	case errors.Is(err, ErrTooManyRooms):
		return httputil.Conflict("You have reached the limit of joined rooms. Leave one first")
	case errors.Is(err, ErrNotRoomOwner):
		return httputil.Forbidden("Only the room creator can do that")
	case errors.Is(err, ErrCodeAllocationExhausted):
		return httputil.Unavailable("Could not create the room right now, please try again", err)
	case errors.Is(err, ErrStoreUnavailable):
		return httputil.Unavailable("Service temporarily unavailable", err)
	default:
		return httputil.Internal(err)
	}
}

// HandleCreateRoom creates a new study room owned by the caller
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) error {
	creatorID := auth.GetUserID(r.Context())
	if creatorID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(CreateRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	h.log.Debug("room creation request received",
		"creator_id", creatorID,
		"room_name", req.Name,
		"level", req.Level)

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	room, err := h.service.Create(ctx, *req, creatorID)
	if err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusCreated, RoomResponse{Room: *room})
}

// HandleListRooms returns all study rooms, newest first
func (h *Handler) HandleListRooms(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := h.dbCtx(r)
	defer cancel()

	rooms, err := h.service.List(ctx)
	if err != nil {
		return mapServiceError(err)
	}

	list := make([]Room, len(rooms))
	for i, room := range rooms {
		list[i] = *room
	}

	return httputil.RespondJSON(w, http.StatusOK, ListRoomsResponse{
		Rooms: list,
		Count: len(list),
	})
}

// HandleGetRoomByCode looks a room up by its six-digit share code
func (h *Handler) HandleGetRoomByCode(w http.ResponseWriter, r *http.Request) error {
	code, err := httputil.ParseInt(r, "code")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	room, err := h.service.GetByCode(ctx, code)
	if err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, RoomResponse{Room: *room})
}

// HandleJoinRoom adds the caller to the room behind the share code
func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	code, err := httputil.ParseInt(r, "code")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	room, err := h.service.Join(ctx, code, userID)
	if err != nil {
		return mapServiceError(err)
	}

	h.log.Debug("join handled",
		"room_id", room.ID,
		"user_id", userID,
		"participant_count", len(room.Participants))

	return httputil.RespondJSON(w, http.StatusOK, RoomResponse{Room: *room})
}

// HandleLeaveRoom removes the caller from the room behind the share code
func (h *Handler) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	code, err := httputil.ParseInt(r, "code")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.service.Leave(ctx, code, userID); err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Left room successfully",
	})
}

// HandleUpdateRoom lets the room creator change name or description
func (h *Handler) HandleUpdateRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	req := new(UpdateRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.service.Update(ctx, roomID, userID, *req); err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Room updated successfully",
	})
}

// HandleDeleteRoom lets the room creator delete the room
func (h *Handler) HandleDeleteRoom(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.service.Delete(ctx, roomID, userID); err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Room deleted successfully",
	})
}

// HandleGetParticipants returns the ordered participant list of a room
func (h *Handler) HandleGetParticipants(w http.ResponseWriter, r *http.Request) error {
	roomID, err := httputil.ParseUUID(r, "roomID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	participants, err := h.service.Participants(ctx, roomID)
	if err != nil {
		return mapServiceError(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, ParticipantsResponse{
		Participants: participants,
		Count:        len(participants),
	})
}
