package errors

import "fmt"

var (
	// Lookup failures. Always recoverable, surfaced to the caller as a
	// personal notice and never fatal.
	ErrNotFound     = fmt.Errorf("connection not registered")
	ErrRoomNotFound = fmt.Errorf("room not found")

	// Policy violations. The transition is aborted with no state change.
	ErrDuplicateConnection = fmt.Errorf("connection already registered")
	ErrAlreadyOwnsRoom     = fmt.Errorf("connection already owns a room")
	ErrAlreadyInRoom       = fmt.Errorf("connection already in a room")
	ErrRoomClosed          = fmt.Errorf("room refuses new members")
	ErrNotOwner            = fmt.Errorf("only the owner can remove a room")
	ErrRoomOccupied        = fmt.Errorf("room still occupied")
	ErrNotInRoom           = fmt.Errorf("not connected to a room")

	ErrInvalidCommand = fmt.Errorf("invalid command")
	ErrWorkerPanic    = fmt.Errorf("worker panic")
)
