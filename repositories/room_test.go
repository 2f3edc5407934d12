package repositories

import (
	"fmt"
	"io"
	"log/slog"
	"room-lab/domain"
	"room-lab/errors"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *RoomRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoomRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRoomRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	room, err := domain.NewPrivateRoom("", "lobby", 3)
	req.NoError(err)
	_, err = room.Join(domain.NewParticipant(domain.User{Username: "alice"}, "localhost:9001"))
	req.NoError(err)

	// When a room without id is created
	id, err := repository.Create(room)
	req.NoError(err)

	// Then an id is generated and the room round-trips
	req.NotEmpty(id)
	stored, err := repository.Get(id)
	req.NoError(err)
	room.ID = id
	req.Equal(room, stored)
}

func TestRoomRepository_Create_Duplicate(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	room, err := domain.NewPrivateRoom("same", "lobby", 2)
	req.NoError(err)

	_, err = repository.Create(room)
	req.NoError(err)
	_, err = repository.Create(room)
	req.ErrorIs(err, errors.ErrStorageFailure)
}

func TestRoomRepository_Get_NotFound(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.Get("missing")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomRepository_Delete(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	room, err := domain.NewPrivateRoom("", "lobby", 2)
	req.NoError(err)
	id, err := repository.Create(room)
	req.NoError(err)

	req.NoError(repository.Delete(id))

	_, err = repository.Get(id)
	req.ErrorIs(err, errors.ErrRoomNotFound)
	req.ErrorIs(repository.Delete(id), errors.ErrRoomNotFound)
}

func TestRoomRepository_WithRoom_MutatorErrorIsNotPersisted(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	room, err := domain.NewPrivateRoom("", "lobby", 2)
	req.NoError(err)
	id, err := repository.Create(room)
	req.NoError(err)

	// When the mutator changes the room then fails
	_, err = repository.WithRoom(id, func(room *domain.Room) error {
		room.Name = "changed"
		return errors.ErrNotAMember
	})

	// Then the error is returned as is and nothing is written
	req.ErrorIs(err, errors.ErrNotAMember)
	stored, err := repository.Get(id)
	req.NoError(err)
	req.Equal("lobby", stored.Name)
}

func TestRoomRepository_WithRoom_NotFound(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	called := false

	_, err := repository.WithRoom("missing", func(room *domain.Room) error {
		called = true
		return nil
	})

	req.ErrorIs(err, errors.ErrRoomNotFound)
	req.False(called)
}

func TestRoomRepository_WithRoom_ConcurrentJoinsNeverOverfill(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	capacity := 5
	room, err := domain.NewPrivateRoom("", "lobby", capacity)
	req.NoError(err)
	id, err := repository.Create(room)
	req.NoError(err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		full    int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var filled bool
			_, err := repository.WithRoom(id, func(room *domain.Room) error {
				var err error
				filled, err = room.Join(domain.NewParticipant(
					domain.User{Username: fmt.Sprintf("user-%d", i)}, "localhost:9000"))
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && filled:
				winners++
			case err != nil:
				req.ErrorIs(err, errors.ErrRoomFull)
				full++
			}
		}(i)
	}
	wg.Wait()

	stored, err := repository.Get(id)
	req.NoError(err)
	req.Len(stored.Participants, capacity)
	req.Equal(domain.Full, stored.Status)
	req.Equal(1, winners)
	req.Equal(40-capacity, full)
}

func TestRoomRepository_PublicRoom_CreatedOnceUnderConcurrency(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	var wg sync.WaitGroup
	ids := make(chan domain.RoomID, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, err := repository.PublicRoom(4)
			req.NoError(err)
			ids <- room.ID
		}()
	}
	wg.Wait()
	close(ids)

	// Then every caller resolved the same lazily created room
	unique := map[domain.RoomID]struct{}{}
	for id := range ids {
		unique[id] = struct{}{}
	}
	req.Len(unique, 1)

	rooms, err := repository.ListPublicRooms()
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(domain.Public, rooms[0].Kind)
	req.Equal(domain.Open, rooms[0].Status)
	req.Equal(4, rooms[0].Capacity)
}

func TestRoomRepository_PublicRoom_InvalidCapacity(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	_, err := repository.PublicRoom(0)
	req.ErrorIs(err, errors.ErrInvalidCapacity)
	_, err = repository.ReplacePublicRoom(-1, "")
	req.ErrorIs(err, errors.ErrInvalidCapacity)
}

func TestRoomRepository_ReplacePublicRoom(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	first, err := repository.PublicRoom(2)
	req.NoError(err)

	// When the pool entry is replaced while it still points at the first room
	second, err := repository.ReplacePublicRoom(2, first.ID)
	req.NoError(err)

	// Then a new empty open room takes its place and the first one is kept
	req.NotEqual(first.ID, second.ID)
	req.Equal(domain.Open, second.Status)
	req.Empty(second.Participants)
	_, err = repository.Get(first.ID)
	req.NoError(err)

	// And a stale replacement leaves the pool untouched
	current, err := repository.ReplacePublicRoom(2, first.ID)
	req.NoError(err)
	req.Equal(second.ID, current.ID)

	resolved, err := repository.PublicRoom(2)
	req.NoError(err)
	req.Equal(second.ID, resolved.ID)
}

func TestRoomRepository_PublicRoom_ReplacesPooledFullRoom(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	pooled, err := repository.PublicRoom(1)
	req.NoError(err)

	// Given the pooled room filled but the pool entry was never replaced
	_, err = repository.WithRoom(pooled.ID, func(room *domain.Room) error {
		_, err := room.Join(domain.NewParticipant(domain.User{Username: "alice"}, "alice.local:9000"))
		return err
	})
	req.NoError(err)

	// When the pool is resolved again
	resolved, err := repository.PublicRoom(1)
	req.NoError(err)

	// Then a fresh open room takes over and the filled record is kept
	req.NotEqual(pooled.ID, resolved.ID)
	req.Equal(domain.Open, resolved.Status)
	filled, err := repository.Get(pooled.ID)
	req.NoError(err)
	req.Equal(domain.Full, filled.Status)

	again, err := repository.PublicRoom(1)
	req.NoError(err)
	req.Equal(resolved.ID, again.ID)
	rooms, err := repository.ListPublicRooms()
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(resolved.ID, rooms[0].ID)
}

func TestRoomRepository_ListPublicRooms_SortedByCapacity(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	for _, capacity := range []int{10, 2, 4} {
		_, err := repository.PublicRoom(capacity)
		req.NoError(err)
	}
	// A replacement must not add a second entry for the same capacity
	_, err := repository.ReplacePublicRoom(4, "")
	req.NoError(err)

	rooms, err := repository.ListPublicRooms()
	req.NoError(err)
	req.Len(rooms, 3)
	req.Equal([]int{2, 4, 10}, []int{rooms[0].Capacity, rooms[1].Capacity, rooms[2].Capacity})
}

func TestRoomRepository_ListRooms_KeepsReplacedPoolRooms(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	private, err := domain.NewPrivateRoom("", "arena", 3)
	req.NoError(err)
	_, err = repository.Create(private)
	req.NoError(err)
	_, err = repository.PublicRoom(2)
	req.NoError(err)
	_, err = repository.ReplacePublicRoom(2, "")
	req.NoError(err)

	rooms, err := repository.ListRooms()
	req.NoError(err)
	req.Len(rooms, 3)
	publicRooms := lo.CountBy(rooms, func(room domain.Room) bool { return room.Kind == domain.Public })
	req.Equal(2, publicRooms)
}

func TestKeyLock_ReleasesEntries(t *testing.T) {
	req := require.New(t)
	locks := newKeyLock()

	unlock := locks.Lock("a")
	req.Len(locks.locks, 1)
	unlock()

	req.Empty(locks.locks)
}
