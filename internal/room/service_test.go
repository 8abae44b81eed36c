package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/notify"
)

// memStore is an in-memory Store with the same membership semantics as
// the postgres implementation: caps are enforced inside the mutation.
type memStore struct {
	mu           sync.Mutex
	rooms        map[uuid.UUID]*Room
	participants map[uuid.UUID][]uuid.UUID
	codes        map[int]bool
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[uuid.UUID]*Room),
		participants: make(map[uuid.UUID][]uuid.UUID),
		codes:        make(map[int]bool),
	}
}

func (m *memStore) CreateRoom(_ context.Context, room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codes[room.RoomCode] {
		return ErrCodeTaken
	}

	room.ID = uuid.New()
	room.CreatedAt = time.Now()
	room.Participants = []uuid.UUID{room.CreatedBy}

	stored := *room
	m.rooms[room.ID] = &stored
	m.participants[room.ID] = []uuid.UUID{room.CreatedBy}
	m.codes[room.RoomCode] = true
	return nil
}

func (m *memStore) ListRooms(_ context.Context) ([]*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, m.snapshot(room))
	}
	return rooms, nil
}

func (m *memStore) GetRoomByID(_ context.Context, id uuid.UUID) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return m.snapshot(room), nil
}

func (m *memStore) GetRoomByCode(_ context.Context, code int) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		if room.RoomCode == code {
			return m.snapshot(room), nil
		}
	}
	return nil, ErrRoomNotFound
}

func (m *memStore) CodeExists(_ context.Context, code int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[code], nil
}

func (m *memStore) UpdateRoom(_ context.Context, id uuid.UUID, upd UpdateRoomRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	if upd.Name != nil {
		room.Name = *upd.Name
	}
	if upd.Description != nil {
		room.Description = *upd.Description
	}
	return nil
}

func (m *memStore) DeleteRoom(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	delete(m.codes, room.RoomCode)
	delete(m.rooms, id)
	delete(m.participants, id)
	return nil
}

func (m *memStore) JoinRoom(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.participants[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	if slices.Contains(members, userID) {
		return false, nil
	}
	if len(members) >= MaxParticipants {
		return false, ErrRoomFull
	}
	if m.membershipCount(userID) >= MaxRoomsPerUser {
		return false, ErrTooManyRooms
	}

	m.participants[roomID] = append(members, userID)
	return true, nil
}

func (m *memStore) LeaveRoom(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.participants[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	idx := slices.Index(members, userID)
	if idx < 0 {
		return false, nil
	}
	m.participants[roomID] = slices.Delete(members, idx, idx+1)
	return true, nil
}

func (m *memStore) GetParticipants(_ context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.participants[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return slices.Clone(members), nil
}

func (m *memStore) membershipCount(userID uuid.UUID) int {
	count := 0
	for _, members := range m.participants {
		if slices.Contains(members, userID) {
			count++
		}
	}
	return count
}

func (m *memStore) snapshot(room *Room) *Room {
	copied := *room
	copied.Participants = slices.Clone(m.participants[room.ID])
	return &copied
}

type stubVoice struct {
	url string
	err error
}

func (v *stubVoice) CreateVoiceRoom(context.Context, string) (string, error) {
	return v.url, v.err
}

// recordingNotifier captures emitted change events for assertions
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) RoomChanged(_ context.Context, roomID uuid.UUID, change notify.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notify.Event{RoomID: roomID, Change: change})
}

func (n *recordingNotifier) all() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store Store, voice VoiceProvisioner) (*Service, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return NewService(store, voice, notifier, testLogger()), notifier
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	creator := uuid.New()

	t.Run("assigns a six digit code and seeds the creator", func(t *testing.T) {
		store := newMemStore()
		svc, notifier := newTestService(store, &stubVoice{url: "https://voice.example/r/abc"})

		room, err := svc.Create(ctx, CreateRoomRequest{Name: "Audit study", Level: "final"}, creator)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, room.RoomCode, 100000)
		assert.LessOrEqual(t, room.RoomCode, 999999)
		assert.Equal(t, []uuid.UUID{creator}, room.Participants)
		assert.Equal(t, creator, room.CreatedBy)
		assert.Equal(t, "https://voice.example/r/abc", room.VoiceRoomURL)
		assert.NotEqual(t, uuid.Nil, room.ID)

		events := notifier.all()
		require.Len(t, events, 1)
		assert.Equal(t, notify.ChangeCreated, events[0].Change)
		assert.Equal(t, room.ID, events[0].RoomID)
	})

	t.Run("unique codes across many rooms", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, nil)

		seen := make(map[int]bool)
		for range 30 {
			room, err := svc.Create(ctx, CreateRoomRequest{Name: "r", Level: "basic"}, uuid.New())
			require.NoError(t, err)
			assert.False(t, seen[room.RoomCode], "code %d allocated twice", room.RoomCode)
			seen[room.RoomCode] = true
		}
	})

	t.Run("voice failure degrades to empty url", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, &stubVoice{err: errors.New("provider down")})

		room, err := svc.Create(ctx, CreateRoomRequest{Name: "No voice", Level: "basic"}, creator)
		require.NoError(t, err)
		assert.Empty(t, room.VoiceRoomURL)
	})

	t.Run("nil voice provisioner is fine", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, nil)

		room, err := svc.Create(ctx, CreateRoomRequest{Name: "Plain", Level: "basic"}, creator)
		require.NoError(t, err)
		assert.Empty(t, room.VoiceRoomURL)
	})

	t.Run("rejects blank name and level", func(t *testing.T) {
		store := newMemStore()
		svc, notifier := newTestService(store, nil)

		_, err := svc.Create(ctx, CreateRoomRequest{Name: "   ", Level: "basic"}, creator)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Create(ctx, CreateRoomRequest{Name: "ok", Level: ""}, creator)
		assert.ErrorIs(t, err, ErrValidation)

		assert.Empty(t, notifier.all())
	})

	t.Run("exhausted allocation surfaces a retryable error", func(t *testing.T) {
		svc, notifier := newTestService(&saturatedStore{newMemStore()}, nil)

		_, err := svc.Create(ctx, CreateRoomRequest{Name: "r", Level: "basic"}, creator)
		assert.ErrorIs(t, err, ErrCodeAllocationExhausted)
		assert.Empty(t, notifier.all())
	})

	t.Run("insert conflict triggers reallocation", func(t *testing.T) {
		store := newMemStore()
		conflicts := 2
		svc, _ := newTestService(&conflictingStore{memStore: store, conflicts: &conflicts}, nil)

		room, err := svc.Create(ctx, CreateRoomRequest{Name: "r", Level: "basic"}, creator)
		require.NoError(t, err)
		assert.Equal(t, 0, conflicts, "expected the conflicting inserts to be retried")
		assert.NotEqual(t, uuid.Nil, room.ID)
	})
}

// saturatedStore reports every code as taken, as if the whole code
// space were allocated.
type saturatedStore struct {
	*memStore
}

func (s *saturatedStore) CodeExists(context.Context, int) (bool, error) {
	return true, nil
}

// conflictingStore rejects the first N CreateRoom calls with ErrCodeTaken,
// simulating lost races on the unique index.
type conflictingStore struct {
	*memStore
	conflicts *int
}

func (s *conflictingStore) CreateRoom(ctx context.Context, room *Room) error {
	if *s.conflicts > 0 {
		*s.conflicts--
		return ErrCodeTaken
	}
	return s.memStore.CreateRoom(ctx, room)
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *recordingNotifier, *memStore, *Room) {
		t.Helper()
		store := newMemStore()
		svc, notifier := newTestService(store, nil)
		room, err := svc.Create(ctx, CreateRoomRequest{Name: "CA Final", Level: "final"}, uuid.New())
		require.NoError(t, err)
		return svc, notifier, store, room
	}

	t.Run("adds the user once", func(t *testing.T) {
		svc, notifier, _, room := setup(t)
		user := uuid.New()

		got, err := svc.Join(ctx, room.RoomCode, user)
		require.NoError(t, err)
		assert.Contains(t, got.Participants, user)
		assert.Len(t, got.Participants, 2)

		// create + join
		assert.Len(t, notifier.all(), 2)
		assert.Equal(t, notify.ChangeUpdated, notifier.all()[1].Change)
	})

	t.Run("join is idempotent", func(t *testing.T) {
		svc, notifier, _, room := setup(t)
		user := uuid.New()

		_, err := svc.Join(ctx, room.RoomCode, user)
		require.NoError(t, err)

		got, err := svc.Join(ctx, room.RoomCode, user)
		require.NoError(t, err)
		assert.Len(t, got.Participants, 2, "repeat join must not duplicate the participant")

		// only one update event despite two join calls
		assert.Len(t, notifier.all(), 2)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc, _, _, room := setup(t)

		unknown := 123456
		if unknown == room.RoomCode {
			unknown = 123457
		}

		_, err := svc.Join(ctx, unknown, uuid.New())
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("out of range code", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		_, err := svc.Join(ctx, 42, uuid.New())
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("full room rejects new joiners", func(t *testing.T) {
		svc, _, store, room := setup(t)

		// creator already occupies one slot
		for i := 1; i < MaxParticipants; i++ {
			_, err := svc.Join(ctx, room.RoomCode, uuid.New())
			require.NoError(t, err)
		}

		members, err := store.GetParticipants(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, members, MaxParticipants)

		_, err = svc.Join(ctx, room.RoomCode, uuid.New())
		assert.ErrorIs(t, err, ErrRoomFull)

		// an existing participant can still "join" idempotently
		got, err := svc.Join(ctx, room.RoomCode, members[3])
		require.NoError(t, err)
		assert.Len(t, got.Participants, MaxParticipants)
	})

	t.Run("per user room cap", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestService(store, nil)
		user := uuid.New()

		codes := make([]int, 0, MaxRoomsPerUser+1)
		for range MaxRoomsPerUser + 1 {
			room, err := svc.Create(ctx, CreateRoomRequest{Name: "r", Level: "basic"}, uuid.New())
			require.NoError(t, err)
			codes = append(codes, room.RoomCode)
		}

		for _, code := range codes[:MaxRoomsPerUser] {
			_, err := svc.Join(ctx, code, user)
			require.NoError(t, err)
		}

		_, err := svc.Join(ctx, codes[MaxRoomsPerUser], user)
		assert.ErrorIs(t, err, ErrTooManyRooms)

		// leaving one room frees a slot
		require.NoError(t, svc.Leave(ctx, codes[0], user))
		_, err = svc.Join(ctx, codes[MaxRoomsPerUser], user)
		assert.NoError(t, err)
	})
}

func TestLeaveRoom(t *testing.T) {
	ctx := context.Background()
	creator := uuid.New()

	setup := func(t *testing.T) (*Service, *recordingNotifier, *Room) {
		t.Helper()
		store := newMemStore()
		svc, notifier := newTestService(store, nil)
		room, err := svc.Create(ctx, CreateRoomRequest{Name: "Tax prep", Level: "inter"}, creator)
		require.NoError(t, err)
		return svc, notifier, room
	}

	t.Run("removes the participant", func(t *testing.T) {
		svc, notifier, room := setup(t)
		user := uuid.New()

		_, err := svc.Join(ctx, room.RoomCode, user)
		require.NoError(t, err)

		require.NoError(t, svc.Leave(ctx, room.RoomCode, user))

		members, err := svc.Participants(ctx, room.ID)
		require.NoError(t, err)
		assert.NotContains(t, members, user)

		// create + join + leave
		assert.Len(t, notifier.all(), 3)
	})

	t.Run("leave when not a member is a no-op", func(t *testing.T) {
		svc, notifier, room := setup(t)

		require.NoError(t, svc.Leave(ctx, room.RoomCode, uuid.New()))
		assert.Len(t, notifier.all(), 1, "no-op leave must not emit a change")
	})

	t.Run("emptied room survives", func(t *testing.T) {
		svc, _, room := setup(t)

		require.NoError(t, svc.Leave(ctx, room.RoomCode, creator))

		got, err := svc.GetByCode(ctx, room.RoomCode)
		require.NoError(t, err)
		assert.Empty(t, got.Participants)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc, _, room := setup(t)

		unknown := 999999
		if unknown == room.RoomCode {
			unknown = 999998
		}
		assert.ErrorIs(t, svc.Leave(ctx, unknown, uuid.New()), ErrRoomNotFound)
	})
}

func TestUpdateRoom(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	setup := func(t *testing.T) (*Service, *Room) {
		t.Helper()
		store := newMemStore()
		svc, _ := newTestService(store, nil)
		room, err := svc.Create(ctx, CreateRoomRequest{Name: "Old name", Level: "basic"}, owner)
		require.NoError(t, err)
		return svc, room
	}

	t.Run("owner can rename", func(t *testing.T) {
		svc, room := setup(t)
		name := "New name"

		require.NoError(t, svc.Update(ctx, room.ID, owner, UpdateRoomRequest{Name: &name}))

		got, err := svc.GetByCode(ctx, room.RoomCode)
		require.NoError(t, err)
		assert.Equal(t, "New name", got.Name)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, room := setup(t)
		name := "Hijacked"

		err := svc.Update(ctx, room.ID, uuid.New(), UpdateRoomRequest{Name: &name})
		assert.ErrorIs(t, err, ErrNotRoomOwner)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		svc, room := setup(t)
		name := "  "

		err := svc.Update(ctx, room.ID, owner, UpdateRoomRequest{Name: &name})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	setup := func(t *testing.T) (*Service, *recordingNotifier, *Room) {
		t.Helper()
		store := newMemStore()
		svc, notifier := newTestService(store, nil)
		room, err := svc.Create(ctx, CreateRoomRequest{Name: "Doomed", Level: "basic"}, owner)
		require.NoError(t, err)
		return svc, notifier, room
	}

	t.Run("owner can delete", func(t *testing.T) {
		svc, notifier, room := setup(t)

		require.NoError(t, svc.Delete(ctx, room.ID, owner))

		_, err := svc.GetByCode(ctx, room.RoomCode)
		assert.ErrorIs(t, err, ErrRoomNotFound)

		events := notifier.all()
		require.Len(t, events, 2)
		assert.Equal(t, notify.ChangeDeleted, events[1].Change)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, _, room := setup(t)

		err := svc.Delete(ctx, room.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotRoomOwner)

		_, getErr := svc.GetByCode(ctx, room.RoomCode)
		assert.NoError(t, getErr)
	})

	t.Run("deleted code becomes reusable", func(t *testing.T) {
		svc, _, room := setup(t)
		freedCode := room.RoomCode

		require.NoError(t, svc.Delete(ctx, room.ID, owner))

		exists, err := svc.store.CodeExists(ctx, freedCode)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	svc, _ := newTestService(store, nil)
	creator := uuid.New()

	room, err := svc.Create(ctx, CreateRoomRequest{Name: "Ordered", Level: "basic"}, creator)
	require.NoError(t, err)

	joiners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, u := range joiners {
		_, err := svc.Join(ctx, room.RoomCode, u)
		require.NoError(t, err)
	}

	members, err := svc.Participants(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, append([]uuid.UUID{creator}, joiners...), members, "participants keep join order")

	_, err = svc.Participants(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRandomRoomCodeRange(t *testing.T) {
	for range 1000 {
		code := randomRoomCode()
		require.GreaterOrEqual(t, code, codeMin)
		require.LessOrEqual(t, code, codeMax)
	}
}
