package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/AymenENSI/Secure-Entry/internal/config"
	"github.com/AymenENSI/Secure-Entry/internal/models"
)

// PostgresStore persists the access-event audit log. Writes are
// best-effort from the caller's point of view: a failed audit insert
// must never block an authorization decision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the audit table if it doesn't exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS access_events (
			id UUID PRIMARY KEY,
			camera_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			identity_name TEXT NOT NULL DEFAULT '',
			pending_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL DEFAULT '',
			snapshot_key TEXT NOT NULL DEFAULT '',
			embedding vector(512),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS access_events_created_at_idx ON access_events (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS access_events_camera_idx ON access_events (camera_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordEvent inserts one audit entry. The probe embedding is stored as
// a pgvector value when present.
func (s *PostgresStore) RecordEvent(ctx context.Context, ev *models.AccessEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	var embedding any
	if len(ev.Embedding) > 0 {
		embedding = pgvector.NewVector(ev.Embedding)
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO access_events (id, camera_id, decision, identity_name, pending_id, action, snapshot_key, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		ev.ID, ev.CameraID, ev.Decision, ev.IdentityName, ev.PendingID, ev.Action, ev.SnapshotKey, embedding,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("record access event: %w", err)
	}
	return nil
}

// ListEvents returns recent audit entries, newest first, optionally
// filtered by camera.
func (s *PostgresStore) ListEvents(ctx context.Context, cameraID string, limit int) ([]models.AccessEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT id, camera_id, decision, identity_name, pending_id, action, snapshot_key, created_at
		FROM access_events`
	args := []any{}
	if cameraID != "" {
		query += ` WHERE camera_id = $1`
		args = append(args, cameraID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list access events: %w", err)
	}
	defer rows.Close()

	var events []models.AccessEvent
	for rows.Next() {
		var ev models.AccessEvent
		if err := rows.Scan(&ev.ID, &ev.CameraID, &ev.Decision, &ev.IdentityName,
			&ev.PendingID, &ev.Action, &ev.SnapshotKey, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
