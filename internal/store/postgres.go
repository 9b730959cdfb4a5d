// Package store persists stream-session records in Postgres
// (Supabase-hosted in production).
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avezina/liveshop/internal/domain"
)

// DB wraps the shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// StreamSessions implements app.StreamStore against the
// stream_sessions table, keyed by stream_key.
type StreamSessions struct {
	pool *pgxpool.Pool
}

func NewStreamSessions(db *DB) *StreamSessions {
	return &StreamSessions{pool: db.Pool}
}

func (s *StreamSessions) MarkLive(ctx context.Context, key domain.StreamKey) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE stream_sessions
		SET status = $1, started_at = NOW(), updated_at = NOW()
		WHERE stream_key = $2`,
		domain.StatusLive, string(key),
	)
	if err != nil {
		return fmt.Errorf("failed to mark stream live: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark live %q: %w", key, domain.ErrStreamNotFound)
	}
	return nil
}

func (s *StreamSessions) MarkEnded(ctx context.Context, key domain.StreamKey) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE stream_sessions
		SET status = $1, ended_at = NOW(), updated_at = NOW()
		WHERE stream_key = $2`,
		domain.StatusEnded, string(key),
	)
	if err != nil {
		return fmt.Errorf("failed to mark stream ended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark ended %q: %w", key, domain.ErrStreamNotFound)
	}
	return nil
}
