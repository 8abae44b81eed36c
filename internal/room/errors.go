package room

import "errors"

var (
	// ErrValidation means caller-supplied input violates a field constraint
	ErrValidation = errors.New("invalid room input")

	// ErrRoomNotFound means the referenced room or code does not exist
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull means the room already holds MaxParticipants users
	ErrRoomFull = errors.New("room is full")

	// ErrTooManyRooms means the user is already in MaxRoomsPerUser rooms
	ErrTooManyRooms = errors.New("joined room limit reached")

	// ErrCodeAllocationExhausted means no free room code was found within
	// the retry budget. The whole create operation is safe to retry.
	ErrCodeAllocationExhausted = errors.New("room code allocation exhausted")

	// ErrStoreUnavailable means the persistence layer is unreachable
	ErrStoreUnavailable = errors.New("room store unavailable")

	// ErrNotRoomOwner means the acting user is not the room's creator
	ErrNotRoomOwner = errors.New("not the room owner")

	// ErrCodeTaken is returned by the store when an insert loses the
	// allocation race on the room_code unique index. The service retries
	// allocation on it.
	ErrCodeTaken = errors.New("room code already taken")
)
