package domain

import (
	"time"

	"github.com/samber/lo"
)

// FillEvent is emitted once per room, by the join that filled it.
type FillEvent struct {
	RoomID   RoomID
	RoomName string
	Kind     Kind
	Roster   []Participant
	FilledAt time.Time
}

type DeliveryStatus string

const (
	Delivered DeliveryStatus = "delivered"
	Failed    DeliveryStatus = "failed"
)

// Delivery is the outcome of notifying one participant.
type Delivery struct {
	Username string
	Address  Address
	Status   DeliveryStatus
	Attempts int
	Err      error
}

// DispatchReport records per-address outcome of a fill notification.
// Deliveries follow roster order.
type DispatchReport struct {
	RoomID     RoomID
	Deliveries []Delivery
}

func (r DispatchReport) Delivered() int {
	return lo.CountBy(r.Deliveries, func(d Delivery) bool { return d.Status == Delivered })
}

func (r DispatchReport) Failed() int {
	return lo.CountBy(r.Deliveries, func(d Delivery) bool { return d.Status == Failed })
}
