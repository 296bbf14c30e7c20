package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Repository implements repository.EventRepository and
// repository.AttachmentRepository on Postgres.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new Postgres repository.
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the tables, the cascade constraint, the unique object
// key constraint, and the search indexes if they don't exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		title TEXT NOT NULL CHECK (title <> ''),
		description TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		metadata JSONB NOT NULL DEFAULT '{}',
		search_document TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_tags ON events USING GIN (tags);
	CREATE INDEX IF NOT EXISTS idx_events_search
		ON events USING GIN (to_tsvector('simple', search_document));

	CREATE TABLE IF NOT EXISTS attachments (
		id BIGSERIAL PRIMARY KEY,
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		key TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_event_id ON attachments (event_id);
	`

	if _, err := r.client.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	r.log.Info("Postgres schema initialized successfully")
	return nil
}

// Ping checks if the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Pool().Ping(ctx)
}
