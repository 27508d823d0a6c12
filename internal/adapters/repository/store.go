// Package repository defines the score store interface and its implementations.
package repository

import (
	"context"

	"github.com/okian/scores/internal/domain/model"
)

// Store persists validated scores.
type Store interface {
	// Add assigns each score a fresh ID and stores all of them atomically.
	// The returned slice carries the assigned IDs in input order.
	Add(ctx context.Context, scores []model.Score) ([]model.Score, error)

	// All returns every score ordered by value descending. Equal values keep
	// insertion order.
	All(ctx context.Context) ([]model.Score, error)

	// Top returns the scores holding the maximum value, ordered by first then
	// second name. An empty store yields an empty slice.
	Top(ctx context.Context) ([]model.Score, error)

	// Find returns the first stored score with exactly these names.
	// Returns ErrNotFound if there is none.
	Find(ctx context.Context, firstName, secondName string) (model.Score, error)

	// Count returns the number of stored scores.
	Count(ctx context.Context) (int, error)

	Close() error
}
