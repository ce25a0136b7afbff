package types

import "errors"

var (
	// ErrInvalidInput rejects malformed or empty request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveSession means the process has never created a session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionNotFound means the given session id is not the current one.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted rejects mutations against a completed session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrUnknownItem means the item id is absent from the catalog.
	ErrUnknownItem = errors.New("unknown item")
)
