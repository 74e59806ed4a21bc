package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUsernameTaken   = errors.New("username taken")
	ErrInvalidCode     = errors.New("invalid connection code")
	ErrMissingToken    = errors.New("no upload token")
	ErrInvalidToken    = errors.New("invalid upload token")
	ErrInvalidUsername = errors.New("invalid username")

	// ErrRoomIDsExhausted means no free room id was found; it is an internal
	// condition, not one of the caller-facing kinds above.
	ErrRoomIDsExhausted = errors.New("no free room id")
)
