package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("score not found")
	ErrClosed        = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)
