package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("import queue is full")
	ErrJobNotFound  = errors.New("import job not found")
	ErrInvalidScore = errors.New("invalid score")
)
