package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateRoom persists a new room and its creator as the first
// participant in one transaction. The unique index on room_code is the
// real uniqueness guarantee; losing the allocation race surfaces as
// ErrCodeTaken so the caller can retry with a fresh code.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	room.CreatedAt = time.Now()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO rooms (id, name, description, level, created_by, room_code, voice_room_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.Exec(ctx, query,
			room.ID,
			room.Name,
			room.Description,
			room.Level,
			room.CreatedBy,
			room.RoomCode,
			room.VoiceRoomURL,
			room.CreatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO room_participants (room_id, user_id, joined_at)
			VALUES ($1, $2, $3)
		`, room.ID, room.CreatedBy, room.CreatedAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrCodeTaken
		}
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	room.Participants = []uuid.UUID{room.CreatedBy}
	return nil
}

// ListRooms retrieves all rooms, newest first
func (s *PostgresStore) ListRooms(ctx context.Context) ([]*Room, error) {
	query := `
		SELECT id, name, description, level, created_by, room_code, voice_room_url, created_at
		FROM rooms
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	rooms := []*Room{}
	for rows.Next() {
		room := &Room{}
		if err := scanRoom(rows, room); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// TODO: replace the per-room participant query with a single
	// array_agg join once listing gets hot
	for _, room := range rooms {
		room.Participants, err = s.GetParticipants(ctx, room.ID)
		if err != nil {
			return nil, err
		}
	}

	return rooms, nil
}

// GetRoomByID retrieves a room with its participants by primary key
func (s *PostgresStore) GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	query := `
		SELECT id, name, description, level, created_by, room_code, voice_room_url, created_at
		FROM rooms
		WHERE id = $1
	`
	return s.getRoom(ctx, query, id)
}

// GetRoomByCode retrieves a room with its participants by share code
func (s *PostgresStore) GetRoomByCode(ctx context.Context, code int) (*Room, error) {
	query := `
		SELECT id, name, description, level, created_by, room_code, voice_room_url, created_at
		FROM rooms
		WHERE room_code = $1
	`
	return s.getRoom(ctx, query, code)
}

func (s *PostgresStore) getRoom(ctx context.Context, query string, arg any) (*Room, error) {
	room := &Room{}
	err := scanRoom(s.pool.QueryRow(ctx, query, arg), room)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.Participants, err = s.GetParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return room, nil
}

// CodeExists reports whether any stored room holds the given code
func (s *PostgresStore) CodeExists(ctx context.Context, code int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE room_code = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check room code: %w", err)
	}

	return exists, nil
}

// UpdateRoom applies the non-nil fields of upd
func (s *PostgresStore) UpdateRoom(ctx context.Context, id uuid.UUID, upd UpdateRoomRequest) error {
	query := `
		UPDATE rooms
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query, id, upd.Name, upd.Description)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// DeleteRoom deletes a room (cascades to participants)
func (s *PostgresStore) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rooms WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// JoinRoom adds the user to the room with both capacity invariants
// checked inside one transaction. The room row is locked so concurrent
// joins to the same room serialize; an advisory lock on the user
// serializes the per-user room count across different rooms.
func (s *PostgresStore) JoinRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var joined bool

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRoomNotFound
			}
			return err
		}

		var already bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id = $1 AND user_id = $2)
		`, roomID, userID).Scan(&already)
		if err != nil {
			return err
		}
		if already {
			// idempotent no-op
			return nil
		}

		var occupancy int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM room_participants WHERE room_id = $1
		`, roomID).Scan(&occupancy)
		if err != nil {
			return err
		}
		if occupancy >= MaxParticipants {
			return ErrRoomFull
		}

		// Serialize joins by the same user: without this, two joins to
		// different rooms only lock different room rows and could both
		// pass the per-user count.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID); err != nil {
			return err
		}

		var memberships int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM room_participants WHERE user_id = $1
		`, userID).Scan(&memberships)
		if err != nil {
			return err
		}
		if memberships >= MaxRoomsPerUser {
			return ErrTooManyRooms
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO room_participants (room_id, user_id, joined_at)
			VALUES ($1, $2, $3)
		`, roomID, userID, time.Now())
		if err != nil {
			return err
		}

		joined = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrRoomFull) || errors.Is(err, ErrTooManyRooms) {
			return false, err
		}
		if ctx.Err() != nil {
			return false, fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return false, fmt.Errorf("failed to join room: %w", err)
	}

	return joined, nil
}

// LeaveRoom removes the user from the room. Removing a non-member is a
// silent no-op; the room itself always survives, even when empty.
func (s *PostgresStore) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return false, ErrRoomNotFound
	}

	result, err := s.pool.Exec(ctx, `
		DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to leave room: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetParticipants returns the room's participants ordered by join time
func (s *PostgresStore) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM room_participants
		WHERE room_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner, room *Room) error {
	var description, voiceURL *string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&description,
		&room.Level,
		&room.CreatedBy,
		&room.RoomCode,
		&voiceURL,
		&room.CreatedAt,
	)
	if err != nil {
		return err
	}

	if description != nil {
		room.Description = *description
	}
	if voiceURL != nil {
		room.VoiceRoomURL = *voiceURL
	}

	return nil
}
