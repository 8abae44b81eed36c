package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// roomsChannel is the single pub/sub topic for "all study rooms"
const roomsChannel = "rooms:changes"

// RedisNotifier publishes change events to a Redis channel so every
// server instance can fan them out to its own WebSocket clients.
type RedisNotifier struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *slog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log,
	}
}

// RoomChanged publishes the event. Publish failures are logged and
// swallowed: the feed is a refetch hint and must not fail the mutation
// that produced it.
func (n *RedisNotifier) RoomChanged(ctx context.Context, roomID uuid.UUID, change Change) {
	payload, err := json.Marshal(Event{RoomID: roomID, Change: change})
	if err != nil {
		n.log.Error("failed to marshal room change event",
			"room_id", roomID,
			"error", err)
		return
	}

	if err := n.rdb.Publish(ctx, roomsChannel, payload).Err(); err != nil {
		n.log.Warn("failed to publish room change event",
			"room_id", roomID,
			"change", change,
			"error", err)
	}
}

// Subscribe consumes the change feed until ctx is cancelled, invoking
// fn for every event. Malformed payloads are skipped.
func (n *RedisNotifier) Subscribe(ctx context.Context, fn func(Event)) error {
	sub := n.rdb.Subscribe(ctx, roomsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.log.Warn("skipping malformed room change event",
					"payload", msg.Payload,
					"error", err)
				continue
			}

			fn(event)
		}
	}
}
