package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/pkg/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scores (
	seq BIGSERIAL PRIMARY KEY,
	id UUID UNIQUE NOT NULL,
	first_name TEXT NOT NULL,
	second_name TEXT NOT NULL,
	score_value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_names ON scores(first_name, second_name);
CREATE INDEX IF NOT EXISTS idx_scores_value ON scores(score_value DESC, seq);
`

// PostgresStore persists scores through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and creates the schema if needed.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Add implements Store.Add with one batch inside a transaction.
func (s *PostgresStore) Add(ctx context.Context, scores []model.Score) ([]model.Score, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op once committed

	out := make([]model.Score, len(scores))
	batch := &pgx.Batch{}
	for i, sc := range scores {
		sc.ID = uuid.NewString()
		batch.Queue(`INSERT INTO scores (id, first_name, second_name, score_value) VALUES ($1, $2, $3, $4)`,
			sc.ID, sc.FirstName, sc.SecondName, sc.Value)
		out[i] = sc
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert scores: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	metrics.RecordScoresStored(len(out))
	if n, cerr := s.Count(ctx); cerr == nil {
		metrics.UpdateScoresTotal(n)
	}
	return out, nil
}

// All implements Store.All.
func (s *PostgresStore) All(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())
	return s.query(ctx,
		`SELECT id::text, first_name, second_name, score_value FROM scores ORDER BY score_value DESC, seq ASC`)
}

// Top implements Store.Top. Names are compared bytewise so the order matches
// the in-memory store.
func (s *PostgresStore) Top(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())
	return s.query(ctx, `
SELECT id::text, first_name, second_name, score_value FROM scores
WHERE score_value = (SELECT MAX(score_value) FROM scores)
ORDER BY first_name COLLATE "C", second_name COLLATE "C", seq`)
}

// Find implements Store.Find.
func (s *PostgresStore) Find(ctx context.Context, firstName, secondName string) (model.Score, error) {
	defer observeQuery(time.Now())

	var sc model.Score
	err := s.pool.QueryRow(ctx, `
SELECT id::text, first_name, second_name, score_value FROM scores
WHERE first_name = $1 AND second_name = $2
ORDER BY seq LIMIT 1`, firstName, secondName).
		Scan(&sc.ID, &sc.FirstName, &sc.SecondName, &sc.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Score{}, ErrNotFound
	}
	if err != nil {
		return model.Score{}, fmt.Errorf("find score: %w", err)
	}
	return sc, nil
}

// Count implements Store.Count.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) query(ctx context.Context, q string) ([]model.Score, error) {
	rows, err := s.pool.Query(ctx, q)
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
