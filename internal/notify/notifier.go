package notify

import (
	"context"

	"github.com/google/uuid"
)

// Change names the kind of room mutation being announced
type Change string

const (
	ChangeCreated Change = "created"
	ChangeUpdated Change = "updated"
	ChangeDeleted Change = "deleted"
)

// Event is the change-feed payload. It carries just enough for a
// client to know a refetch is warranted; it is a hint, not data.
type Event struct {
	RoomID uuid.UUID `json:"room_id"`
	Change Change    `json:"change"`
}

// Notifier announces room mutations. Implementations must never fail
// the mutation that triggered them; delivery is best-effort.
type Notifier interface {
	RoomChanged(ctx context.Context, roomID uuid.UUID, change Change)
}

// Nop discards every event. Used in tests and when the feed is disabled.
type Nop struct{}

func (Nop) RoomChanged(context.Context, uuid.UUID, Change) {}
