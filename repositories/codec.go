package repositories

import (
	"room-lab/domain"

	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
)

// encMode uses Core Deterministic Encoding so the same room always
// produces identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("repositories: CBOR encoder initialization failed: " + err.Error())
	}
}

// DiskRoom is the persisted representation of a domain.Room.
type DiskRoom struct {
	ID           string            `cbor:"1,keyasint"`
	Name         string            `cbor:"2,keyasint"`
	Capacity     int               `cbor:"3,keyasint"`
	Kind         string            `cbor:"4,keyasint"`
	Status       string            `cbor:"5,keyasint"`
	Participants []DiskParticipant `cbor:"6,keyasint"`
}

type DiskParticipant struct {
	Username string `cbor:"1,keyasint"`
	Address  string `cbor:"2,keyasint"`
}

func marshalRoom(room domain.Room) ([]byte, error) {
	return encMode.Marshal(fromDomainRoom(room))
}

func unmarshalRoom(data []byte) (domain.Room, error) {
	var diskRoom DiskRoom
	if err := cbor.Unmarshal(data, &diskRoom); err != nil {
		return domain.Room{}, err
	}
	return toDomainRoom(diskRoom), nil
}

func fromDomainRoom(room domain.Room) DiskRoom {
	return DiskRoom{
		ID:       string(room.ID),
		Name:     room.Name,
		Capacity: room.Capacity,
		Kind:     string(room.Kind),
		Status:   string(room.Status),
		Participants: lo.Map(room.Participants, func(p domain.Participant, _ int) DiskParticipant {
			return DiskParticipant{Username: p.Username(), Address: string(p.Address)}
		}),
	}
}

func toDomainRoom(diskRoom DiskRoom) domain.Room {
	room := domain.Room{
		ID:       domain.RoomID(diskRoom.ID),
		Name:     diskRoom.Name,
		Capacity: diskRoom.Capacity,
		Kind:     domain.Kind(diskRoom.Kind),
		Status:   domain.Status(diskRoom.Status),
		Participants: lo.Map(diskRoom.Participants, func(p DiskParticipant, _ int) domain.Participant {
			return domain.NewParticipant(domain.User{Username: p.Username}, domain.Address(p.Address))
		}),
	}
	if len(room.Participants) == 0 {
		room.Participants = nil
	}
	return room
}
