package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapToHTTPError(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrInvalidCapacity, http.StatusBadRequest, "invalid_capacity"},
		{ErrInvalidRoomName, http.StatusBadRequest, "invalid_room_name"},
		{ErrAuthFailure, http.StatusUnauthorized, "auth_failure"},
		{ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
		{ErrAlreadyJoined, http.StatusConflict, "already_joined"},
		{ErrRoomFull, http.StatusConflict, "room_full"},
		{fmt.Errorf("%w: disk is gone", ErrStorageFailure), http.StatusInternalServerError, "storage_failure"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		httpErr := MapToHTTPError(tt.err)
		req.Equal(tt.status, httpErr.Status, tt.err.Error())
		req.Equal(tt.code, httpErr.Code, tt.err.Error())
	}
}
