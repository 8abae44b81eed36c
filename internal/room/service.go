package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/notify"
)

// VoiceProvisioner creates a voice session on the external provider.
// An error here never fails room creation; the service degrades to a
// room without a voice URL.
type VoiceProvisioner interface {
	CreateVoiceRoom(ctx context.Context, name string) (string, error)
}

// Service owns room lifecycle and membership rules on top of a Store
type Service struct {
	store    Store
	voice    VoiceProvisioner
	notifier notify.Notifier
	log      *slog.Logger
}

func NewService(store Store, voice VoiceProvisioner, notifier notify.Notifier, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		store:    store,
		voice:    voice,
		notifier: notifier,
		log:      log,
	}
}

// Create validates the input, allocates a unique six-digit code,
// provisions a voice room best-effort and persists the record with the
// creator as the first participant. Nothing is persisted until a code
// is secured, so a failed create leaves no orphaned record.
func (s *Service) Create(ctx context.Context, req CreateRoomRequest, createdBy uuid.UUID) (*Room, error) {
	name := strings.TrimSpace(req.Name)
	level := strings.TrimSpace(req.Level)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if level == "" {
		return nil, fmt.Errorf("%w: level is required", ErrValidation)
	}

	voiceURL := s.provisionVoice(ctx, name)

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generateUniqueRoomCode(ctx)
		if err != nil {
			return nil, err
		}

		room := &Room{
			Name:         name,
			Description:  strings.TrimSpace(req.Description),
			Level:        level,
			CreatedBy:    createdBy,
			RoomCode:     code,
			VoiceRoomURL: voiceURL,
		}

		err = s.store.CreateRoom(ctx, room)
		if errors.Is(err, ErrCodeTaken) {
			// Lost the allocation race to a concurrent create; the
			// unique index rejected the insert, so pick a fresh code.
			s.log.Debug("room code insert conflict, reallocating",
				"room_code", code,
				"attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("room created",
			"room_id", room.ID,
			"room_code", room.RoomCode,
			"created_by", createdBy)

		s.notifier.RoomChanged(ctx, room.ID, notify.ChangeCreated)
		return room, nil
	}

	return nil, ErrCodeAllocationExhausted
}

func (s *Service) provisionVoice(ctx context.Context, name string) string {
	if s.voice == nil {
		return ""
	}

	url, err := s.voice.CreateVoiceRoom(ctx, name)
	if err != nil {
		s.log.Warn("voice room provisioning failed, creating room without voice",
			"room_name", name,
			"error", err)
		return ""
	}

	return url
}

// List returns every room, newest first
func (s *Service) List(ctx context.Context) ([]*Room, error) {
	return s.store.ListRooms(ctx)
}

// GetByCode looks a room up by its share code
func (s *Service) GetByCode(ctx context.Context, code int) (*Room, error) {
	if code < codeMin || code > codeMax {
		return nil, ErrRoomNotFound
	}
	return s.store.GetRoomByCode(ctx, code)
}

// Join adds the user to the room identified by code. Joining a room
// the user is already in succeeds without mutating anything.
func (s *Service) Join(ctx context.Context, code int, userID uuid.UUID) (*Room, error) {
	room, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	joined, err := s.store.JoinRoom(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}

	if joined {
		s.log.Info("user joined room",
			"room_id", room.ID,
			"user_id", userID)
		s.notifier.RoomChanged(ctx, room.ID, notify.ChangeUpdated)
	}

	return s.store.GetRoomByID(ctx, room.ID)
}

// Leave removes the user from the room identified by code. Leaving a
// room the user is not in is a no-op; an emptied room is kept.
func (s *Service) Leave(ctx context.Context, code int, userID uuid.UUID) error {
	room, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	left, err := s.store.LeaveRoom(ctx, room.ID, userID)
	if err != nil {
		return err
	}

	if left {
		s.log.Info("user left room",
			"room_id", room.ID,
			"user_id", userID)
		s.notifier.RoomChanged(ctx, room.ID, notify.ChangeUpdated)
	}

	return nil
}

// Update applies owner-mutable fields. Only the creator may update.
func (s *Service) Update(ctx context.Context, roomID, actingUser uuid.UUID, upd UpdateRoomRequest) error {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}

	if room.CreatedBy != actingUser {
		return ErrNotRoomOwner
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	if err := s.store.UpdateRoom(ctx, roomID, upd); err != nil {
		return err
	}

	s.notifier.RoomChanged(ctx, roomID, notify.ChangeUpdated)
	return nil
}

// Delete removes the room entirely. Only the creator may delete.
func (s *Service) Delete(ctx context.Context, roomID, actingUser uuid.UUID) error {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}

	if room.CreatedBy != actingUser {
		return ErrNotRoomOwner
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	s.log.Info("room deleted",
		"room_id", roomID,
		"deleted_by", actingUser)

	s.notifier.RoomChanged(ctx, roomID, notify.ChangeDeleted)
	return nil
}

// Participants returns the ordered participant list for a room
func (s *Service) Participants(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.store.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.GetParticipants(ctx, roomID)
}
