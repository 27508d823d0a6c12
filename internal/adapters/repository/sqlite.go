package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scores (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	first_name TEXT NOT NULL,
	second_name TEXT NOT NULL,
	score_value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_names ON scores(first_name, second_name);
CREATE INDEX IF NOT EXISTS idx_scores_value ON scores(score_value DESC, seq);
`

// SQLiteStore persists scores in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add implements Store.Add inside one transaction.
func (s *SQLiteStore) Add(ctx context.Context, scores []model.Score) (out []model.Score, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scores (id, first_name, second_name, score_value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	out = make([]model.Score, len(scores))
	for i, sc := range scores {
		sc.ID = uuid.NewString()
		if _, err = stmt.ExecContext(ctx, sc.ID, sc.FirstName, sc.SecondName, sc.Value); err != nil {
			return nil, fmt.Errorf("insert score: %w", err)
		}
		out[i] = sc
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	metrics.RecordScoresStored(len(out))
	if n, cerr := s.Count(ctx); cerr == nil {
		metrics.UpdateScoresTotal(n)
	}
	return out, nil
}

// All implements Store.All.
func (s *SQLiteStore) All(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())
	return s.query(ctx,
		`SELECT id, first_name, second_name, score_value FROM scores ORDER BY score_value DESC, seq ASC`)
}

// Top implements Store.Top.
func (s *SQLiteStore) Top(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())
	return s.query(ctx, `
SELECT id, first_name, second_name, score_value FROM scores
WHERE score_value = (SELECT MAX(score_value) FROM scores)
ORDER BY first_name, second_name, seq`)
}

// Find implements Store.Find.
func (s *SQLiteStore) Find(ctx context.Context, firstName, secondName string) (model.Score, error) {
	defer observeQuery(time.Now())

	var sc model.Score
	err := s.db.QueryRowContext(ctx, `
SELECT id, first_name, second_name, score_value FROM scores
WHERE first_name = ? AND second_name = ?
ORDER BY seq LIMIT 1`, firstName, secondName).
		Scan(&sc.ID, &sc.FirstName, &sc.SecondName, &sc.Value)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Score{}, ErrNotFound
	}
	if err != nil {
		return model.Score{}, fmt.Errorf("find score: %w", err)
	}
	return sc, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string) ([]model.Score, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := []model.Score{}
	for rows.Next() {
		var sc model.Score
		if err := rows.Scan(&sc.ID, &sc.FirstName, &sc.SecondName, &sc.Value); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}
