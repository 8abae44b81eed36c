package room

import (
	"context"

	"github.com/google/uuid"
)

// Store defines what storage operations the room entity has.
//
// JoinRoom and LeaveRoom are atomic: the capacity checks and the
// participant mutation happen as one unit, so concurrent joins cannot
// both pass the checks and together exceed a cap.
type Store interface {
	// CreateRoom persists the room with its creator as the first
	// participant. Returns ErrCodeTaken if room.RoomCode lost the
	// uniqueness race.
	CreateRoom(ctx context.Context, room *Room) error

	// ListRooms returns all rooms ordered by creation time, newest first.
	ListRooms(ctx context.Context) ([]*Room, error)

	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
	GetRoomByCode(ctx context.Context, code int) (*Room, error)

	// CodeExists reports whether any stored room holds the given code.
	CodeExists(ctx context.Context, code int) (bool, error)

	// UpdateRoom applies the non-nil fields. Returns ErrRoomNotFound if
	// the id does not exist.
	UpdateRoom(ctx context.Context, id uuid.UUID, upd UpdateRoomRequest) error

	DeleteRoom(ctx context.Context, id uuid.UUID) error

	// JoinRoom adds the user to the room, enforcing MaxParticipants and
	// MaxRoomsPerUser. Returns joined=false with a nil error when the
	// user is already a participant.
	JoinRoom(ctx context.Context, roomID, userID uuid.UUID) (joined bool, err error)

	// LeaveRoom removes the user from the room. Returns left=false with
	// a nil error when the user was not a participant.
	LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) (left bool, err error)

	GetParticipants(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
}
