package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrForbidden is returned when a host token does not match on a host-only operation.
	ErrForbidden = errors.New("invalid host credentials for this room")
	// ErrInvalidTransition is returned when an operation is illegal for the room's current status.
	ErrInvalidTransition = errors.New("operation not allowed in the room's current state")
	// ErrUnknownPlayer is returned when a player id is not registered in the room.
	ErrUnknownPlayer = errors.New("player is not part of this room")
	// ErrEmptyRoom is returned when a host tries to start a game with zero players.
	ErrEmptyRoom = errors.New("at least one player must join before starting the game")
	// ErrQuizNotFound indicates the quiz source has no material for the requested topic.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidDifficulty indicates an unrecognized difficulty level.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
