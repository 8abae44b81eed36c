package room

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxParticipants is the hard cap on participants per room
	MaxParticipants = 50

	// MaxRoomsPerUser is the hard cap on rooms a single user may be in
	MaxRoomsPerUser = 5
)

// Room is a study room record. Participants are ordered by join time
// and contain no duplicates. RoomCode is the six-digit code users share
// to invite others; it is unique across all stored rooms.
type Room struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Level        string      `json:"level"`
	CreatedBy    uuid.UUID   `json:"created_by"`
	Participants []uuid.UUID `json:"participants"`
	RoomCode     int         `json:"room_code"`
	VoiceRoomURL string      `json:"voice_room_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       string `json:"level"`
}

// UpdateRoomRequest carries the owner-mutable fields. Nil means
// "leave unchanged".
type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type RoomResponse struct {
	Room Room `json:"room"`
}

type ListRoomsResponse struct {
	Rooms []Room `json:"rooms"`
	Count int    `json:"count"`
}

type ParticipantsResponse struct {
	Participants []uuid.UUID `json:"participants"`
	Count        int         `json:"count"`
}
