package domain

import "errors"

var (
	ErrRoomNotFound           = errors.New("room not found")
	ErrRoomFull               = errors.New("room is full")
	ErrRoomClosed             = errors.New("room is closed for entry")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("room was modified concurrently")
	ErrStoreUnavailable       = errors.New("room store unavailable")
	ErrInvalidInput           = errors.New("invalid input")
)
