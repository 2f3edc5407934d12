package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidCapacity   = fmt.Errorf("capacity must be a positive integer")
	ErrInvalidAddress    = fmt.Errorf("participant address must be host:port or an http url")
	ErrInvalidUsername   = fmt.Errorf("username must be 1 to 64 characters")
	ErrInvalidRoomName   = fmt.Errorf("room name must be 1 to 128 characters")
	ErrRoomNotFound      = fmt.Errorf("room not found")
	ErrAlreadyJoined     = fmt.Errorf("user already joined the room")
	ErrNotAMember        = fmt.Errorf("user is not a member of the room")
	ErrRoomFull          = fmt.Errorf("room is full")
	ErrAuthFailure       = fmt.Errorf("authentication failed")
	ErrStorageFailure    = fmt.Errorf("storage failure")
	ErrDispatchFailure   = fmt.Errorf("fill notification delivery failed")
	ErrDispatcherStopped = fmt.Errorf("fill dispatcher stopped")
	ErrTokenGeneration   = fmt.Errorf("token generation failed")
)
