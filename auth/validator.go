package auth

import (
	"room-lab/domain"
	"room-lab/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NewParticipant validates the user and its notification address before
// anything reaches the engine.
func NewParticipant(user domain.User, address string) (domain.Participant, error) {
	if err := validate.Var(user.Username, "required,max=64"); err != nil {
		return domain.Participant{}, errors.ErrInvalidUsername
	}
	if err := validate.Var(address, "required,hostname_port|http_url"); err != nil {
		return domain.Participant{}, errors.ErrInvalidAddress
	}
	return domain.NewParticipant(user, domain.Address(address)), nil
}

// ValidateCreateRoom checks a private room creation request.
func ValidateCreateRoom(name string, capacity int) error {
	if capacity < 1 {
		return errors.ErrInvalidCapacity
	}
	if err := validate.Var(name, "required,max=128"); err != nil {
		return errors.ErrInvalidRoomName
	}
	return nil
}
