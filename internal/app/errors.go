package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrStopped         = errors.New("service stopped")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrUnknownWebcast  = errors.New("webcast not in catalog")
	ErrInvalidAction   = errors.New("invalid action")
	ErrBackpressure    = errors.New("too many pending actions")
)
