package domain

import (
	"room-lab/errors"
	"slices"

	"github.com/samber/lo"
)

type RoomID string

func (id RoomID) String() string { return string(id) }

type Kind string

const (
	Public  Kind = "public"
	Private Kind = "private"
)

type Status string

const (
	Open Status = "open"
	Full Status = "full"
)

// Room is a capacity-bounded group of participants.
//
// Invariants:
//   - len(Participants) <= Capacity
//   - Status becomes Full exactly once, in the join reaching Capacity,
//     and never goes back to Open
//   - a username appears at most once in Participants
type Room struct {
	ID           RoomID
	Name         string
	Capacity     int
	Kind         Kind
	Status       Status
	Participants []Participant
}

func NewPrivateRoom(id RoomID, name string, capacity int) (Room, error) {
	if capacity < 1 {
		return Room{}, errors.ErrInvalidCapacity
	}
	return Room{ID: id, Name: name, Capacity: capacity, Kind: Private, Status: Open}, nil
}

func NewPublicRoom(id RoomID, capacity int) (Room, error) {
	if capacity < 1 {
		return Room{}, errors.ErrInvalidCapacity
	}
	return Room{ID: id, Name: PublicRoomName(capacity), Capacity: capacity, Kind: Public, Status: Open}, nil
}

func (r *Room) IsFull() bool { return r.Status == Full }

func (r *Room) Has(username string) bool {
	return lo.ContainsBy(r.Participants, func(p Participant) bool {
		return p.Username() == username
	})
}

// Join adds the participant and reports whether this join filled the room.
// A room that was Full once rejects joins even after a later leave.
func (r *Room) Join(participant Participant) (filled bool, err error) {
	if r.Has(participant.Username()) {
		return false, errors.ErrAlreadyJoined
	}
	if r.IsFull() || len(r.Participants) >= r.Capacity {
		return false, errors.ErrRoomFull
	}
	r.Participants = append(r.Participants, participant)
	if len(r.Participants) == r.Capacity {
		r.Status = Full
		return true, nil
	}
	return false, nil
}

// Leave removes the user from the room. The status is left untouched.
func (r *Room) Leave(username string) error {
	_, index, ok := lo.FindIndexOf(r.Participants, func(p Participant) bool {
		return p.Username() == username
	})
	if !ok {
		return errors.ErrNotAMember
	}
	r.Participants = slices.Delete(r.Participants, index, index+1)
	return nil
}

// Roster returns a copy of the participants so callers never alias stored state.
func (r *Room) Roster() []Participant {
	return slices.Clone(r.Participants)
}
