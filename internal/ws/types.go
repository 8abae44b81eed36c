package ws

// MessageType defines the type of message sent to feed clients
type MessageType string

const (
	TypeConnectionAck MessageType = "connection_ack"
	TypeRoomChanged   MessageType = "room_changed"
	TypeError         MessageType = "error"
)

// ServerMessage represents any message to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}
