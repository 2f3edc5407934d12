// Package domain contains core concepts of the room system.
// This file defines User, Address and Participant entities.
// No runtime, network, or storage logic should be added here.
package domain

import "github.com/samber/lo"

// User is a resolved identity. Immutable once resolved.
type User struct {
	Username string
}

// Address is the endpoint at which a participant receives the fill
// notification: either host:port or an absolute URL.
type Address string

func (a Address) String() string { return string(a) }

// Participant is a User joined to one room, together with the address
// it expects the fill notification on.
type Participant struct {
	User    User
	Address Address
}

func NewParticipant(user User, address Address) Participant {
	return Participant{User: user, Address: address}
}

func (p Participant) Username() string { return p.User.Username }

// Addresses returns the addresses of the participants, keeping roster order.
func Addresses(participants []Participant) []Address {
	return lo.Map(participants, func(p Participant, _ int) Address {
		return p.Address
	})
}
