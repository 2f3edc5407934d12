package errors

import (
	"errors"
	"net/http"
)

// HTTPError is the stable failure representation of the façade.
type HTTPError struct {
	Status int
	Code   string
}

var httpErrors = []struct {
	err error
	HTTPError
}{
	{ErrInvalidCapacity, HTTPError{http.StatusBadRequest, "invalid_capacity"}},
	{ErrInvalidAddress, HTTPError{http.StatusBadRequest, "invalid_address"}},
	{ErrInvalidUsername, HTTPError{http.StatusBadRequest, "invalid_username"}},
	{ErrInvalidRoomName, HTTPError{http.StatusBadRequest, "invalid_room_name"}},
	{ErrAuthFailure, HTTPError{http.StatusUnauthorized, "auth_failure"}},
	{ErrRoomNotFound, HTTPError{http.StatusNotFound, "room_not_found"}},
	{ErrNotAMember, HTTPError{http.StatusNotFound, "not_a_member"}},
	{ErrAlreadyJoined, HTTPError{http.StatusConflict, "already_joined"}},
	{ErrRoomFull, HTTPError{http.StatusConflict, "room_full"}},
	{ErrStorageFailure, HTTPError{http.StatusInternalServerError, "storage_failure"}},
}

// MapToHTTPError maps an engine error to its status and code.
// Unknown errors are reported as internal errors.
func MapToHTTPError(err error) HTTPError {
	for _, candidate := range httpErrors {
		if errors.Is(err, candidate.err) {
			return candidate.HTTPError
		}
	}
	return HTTPError{http.StatusInternalServerError, "internal"}
}
