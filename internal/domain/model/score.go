// Package model contains domain models passed between layers.
package model

import "time"

// Score is a persisted, validated record. ID is assigned by the store.
type Score struct {
	ID         string
	FirstName  string
	SecondName string
	Value      int
}

// ImportStatus tracks an asynchronous import through the worker pool.
type ImportStatus string

const (
	ImportQueued  ImportStatus = "queued"
	ImportRunning ImportStatus = "running"
	ImportDone    ImportStatus = "done"
	ImportFailed  ImportStatus = "failed"
)

// ImportJob is a whole score sheet waiting to be parsed and stored.
type ImportJob struct {
	ID          string
	Source      string // file name or "upload"
	Content     string
	Checksum    string // sha256 of Content, used for deduplication
	SubmittedAt time.Time
}
