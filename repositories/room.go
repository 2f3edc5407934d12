//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"room-lab/domain"
	errs "room-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	roomPrefix = "room:"
	poolPrefix = "pool:"

	// Only reached when another process writes the same room concurrently;
	// in-process writers are already serialized by the key lock.
	maxConflictRetries = 16
)

// IRoomRepository is the Room Store. Every mutation of a single room goes
// through WithRoom, which never interleaves with another WithRoom on the
// same room.
type IRoomRepository interface {
	Get(id domain.RoomID) (domain.Room, error)
	Create(room domain.Room) (domain.RoomID, error)
	Delete(id domain.RoomID) error
	WithRoom(id domain.RoomID, mutate func(room *domain.Room) error) (domain.Room, error)
	PublicRoom(capacity int) (domain.Room, error)
	ReplacePublicRoom(capacity int, expected domain.RoomID) (domain.Room, error)
	ListPublicRooms() ([]domain.Room, error)
}

type RoomRepository struct {
	db    *badger.DB
	log   *slog.Logger
	locks *keyLock
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log, locks: newKeyLock()}
}

// Get reads a consistent snapshot of the room.
func (r *RoomRepository) Get(id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, id)
		return err
	})
	return room, err
}

// Create persists a new room. An empty ID is replaced by a generated one.
func (r *RoomRepository) Create(room domain.Room) (domain.RoomID, error) {
	if room.ID == "" {
		room.ID = domain.RoomID(uuid.NewString())
	}
	unlock := r.locks.Lock(roomPrefix + room.ID.String())
	defer unlock()

	err := r.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(room.ID)); err == nil {
			return fmt.Errorf("%w: room %s already exists", errs.ErrStorageFailure, room.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return storageFailure(err)
		}
		return setRoom(txn, room)
	})
	if err != nil {
		return "", err
	}
	r.log.Debug("Room created", "room_id", room.ID, "kind", room.Kind, "capacity", room.Capacity)
	return room.ID, nil
}

// Delete removes the room and its participants.
func (r *RoomRepository) Delete(id domain.RoomID) error {
	unlock := r.locks.Lock(roomPrefix + id.String())
	defer unlock()

	return r.update(func(txn *badger.Txn) error {
		if _, err := getRoom(txn, id); err != nil {
			return err
		}
		if err := txn.Delete(roomKey(id)); err != nil {
			return storageFailure(err)
		}
		return nil
	})
}

// WithRoom applies mutate to the current state of the room and persists the
// result in one transaction. If mutate fails nothing is written and its error
// is returned unchanged. mutate may be called again if a concurrent writer
// outside this process invalidated the read, so it must not have side effects.
func (r *RoomRepository) WithRoom(id domain.RoomID, mutate func(room *domain.Room) error) (domain.Room, error) {
	unlock := r.locks.Lock(roomPrefix + id.String())
	defer unlock()

	var updated domain.Room
	err := r.update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, id)
		if err != nil {
			return err
		}
		if err = mutate(&room); err != nil {
			return err
		}
		updated = room
		return setRoom(txn, room)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return updated, nil
}

// PublicRoom returns the open pool room for capacity. The room is created on
// first demand, and an entry still pointing at a Full room is replaced in
// the same call, so the pool recovers from a replacement that never happened.
func (r *RoomRepository) PublicRoom(capacity int) (domain.Room, error) {
	if capacity < 1 {
		return domain.Room{}, errs.ErrInvalidCapacity
	}
	// Fast path without the pool lock
	var room domain.Room
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		room, found, err = getPoolRoom(txn, capacity)
		return err
	})
	if err != nil {
		return domain.Room{}, err
	}
	if found && !room.IsFull() {
		return room, nil
	}

	unlock := r.locks.Lock(string(poolKey(capacity)))
	defer unlock()

	var stale domain.RoomID
	var created bool
	err = r.update(func(txn *badger.Txn) error {
		current, ok, err := getPoolRoom(txn, capacity)
		if err != nil {
			return err
		}
		if ok && !current.IsFull() {
			room, stale, created = current, "", false
			return nil
		}
		stale, created = "", true
		if ok {
			stale = current.ID
		}
		room, err = domain.NewPublicRoom(domain.RoomID(uuid.NewString()), capacity)
		if err != nil {
			return err
		}
		return setPoolRoom(txn, capacity, room)
	})
	if err != nil {
		return domain.Room{}, err
	}
	switch {
	case stale != "":
		r.log.Warn("Full public room still pooled, replaced", "capacity", capacity, "previous", stale, "room_id", room.ID)
	case created:
		r.log.Debug("Public room created", "room_id", room.ID, "capacity", capacity)
	}
	return room, nil
}

// ReplacePublicRoom points the pool entry for capacity at a brand-new empty
// room. With a non-empty expected ID the entry is only replaced while it
// still references expected, so several callers reacting to the same fill
// replace it once. The previous room record is kept.
func (r *RoomRepository) ReplacePublicRoom(capacity int, expected domain.RoomID) (domain.Room, error) {
	if capacity < 1 {
		return domain.Room{}, errs.ErrInvalidCapacity
	}
	unlock := r.locks.Lock(string(poolKey(capacity)))
	defer unlock()

	var current domain.Room
	var replaced bool
	err := r.update(func(txn *badger.Txn) error {
		room, found, err := getPoolRoom(txn, capacity)
		if err != nil {
			return err
		}
		if found && expected != "" && room.ID != expected {
			current, replaced = room, false
			return nil
		}
		fresh, err := domain.NewPublicRoom(domain.RoomID(uuid.NewString()), capacity)
		if err != nil {
			return err
		}
		current, replaced = fresh, true
		return setPoolRoom(txn, capacity, fresh)
	})
	if err != nil {
		return domain.Room{}, err
	}
	if replaced {
		r.log.Debug("Public room replaced", "capacity", capacity, "previous", expected, "room_id", current.ID)
	}
	return current, nil
}

// ListPublicRooms returns the pool content ordered by capacity.
func (r *RoomRepository) ListPublicRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(poolPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id domain.RoomID
			err := it.Item().Value(func(val []byte) error {
				id = domain.RoomID(val)
				return nil
			})
			if err != nil {
				return storageFailure(err)
			}
			room, err := getRoom(txn, id)
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListRooms scans every stored room, including filled pool rooms that are no
// longer referenced by the pool.
func (r *RoomRepository) ListRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				room, err := unmarshalRoom(val)
				if err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return storageFailure(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
// Errors returned by fn are passed through; commit errors become storage failures.
func (r *RoomRepository) update(fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		var fnErr error
		err := r.db.Update(func(txn *badger.Txn) error {
			fnErr = fn(txn)
			return fnErr
		})
		if err == nil || fnErr != nil {
			return err
		}
		if !errors.Is(err, badger.ErrConflict) || attempt == maxConflictRetries {
			return storageFailure(err)
		}
		r.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
	}
}

func getRoom(txn *badger.Txn, id domain.RoomID) (domain.Room, error) {
	item, err := txn.Get(roomKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errs.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, storageFailure(err)
	}
	var room domain.Room
	err = item.Value(func(val []byte) error {
		room, err = unmarshalRoom(val)
		return err
	})
	if err != nil {
		return domain.Room{}, storageFailure(err)
	}
	return room, nil
}

func setRoom(txn *badger.Txn, room domain.Room) error {
	data, err := marshalRoom(room)
	if err != nil {
		return storageFailure(err)
	}
	if err = txn.Set(roomKey(room.ID), data); err != nil {
		return storageFailure(err)
	}
	return nil
}

func getPoolRoom(txn *badger.Txn, capacity int) (domain.Room, bool, error) {
	item, err := txn.Get(poolKey(capacity))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, false, nil
	}
	if err != nil {
		return domain.Room{}, false, storageFailure(err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Room{}, false, storageFailure(err)
	}
	room, err := getRoom(txn, domain.RoomID(val))
	if err != nil {
		return domain.Room{}, false, err
	}
	return room, true, nil
}

// setPoolRoom writes the room record and the pool pointer in the same transaction.
func setPoolRoom(txn *badger.Txn, capacity int, room domain.Room) error {
	if err := setRoom(txn, room); err != nil {
		return err
	}
	if err := txn.Set(poolKey(capacity), []byte(room.ID)); err != nil {
		return storageFailure(err)
	}
	return nil
}

func roomKey(id domain.RoomID) []byte {
	return []byte(roomPrefix + id.String())
}

// poolKey pads the capacity so a prefix scan returns the pool sorted by capacity.
func poolKey(capacity int) []byte {
	return []byte(fmt.Sprintf("%s%010d", poolPrefix, capacity))
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrStorageFailure, err)
}
