package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/domain"
)

// pgUniqueViolation is the Postgres error code for unique constraint breaches.
const pgUniqueViolation = "23505"

// EventExists reports whether the owning event row is present.
func (r *Repository) EventExists(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	row := r.client.Pool().QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)", eventID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// CountForEvent returns the current attachment count for an event.
func (r *Repository) CountForEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	row := r.client.Pool().QueryRow(ctx,
		"SELECT count(*) FROM attachments WHERE event_id = $1", eventID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return count, nil
}

// Insert adds the attachment row. The owning event row is locked FOR UPDATE
// first, which serializes concurrent uploads against the same event: the
// count ceiling re-check below cannot race past maxPerEvent.
func (r *Repository) Insert(ctx context.Context, att *domain.Attachment, maxPerEvent int) error {
	tx, err := r.client.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked int64
	err = tx.QueryRow(ctx, "SELECT id FROM events WHERE id = $1 FOR UPDATE", att.EventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Resource: "event", ID: strconv.FormatInt(att.EventID, 10)}
		}
		return fmt.Errorf("failed to lock event row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, "SELECT count(*) FROM attachments WHERE event_id = $1", att.EventID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count attachments: %w", err)
	}
	if count >= maxPerEvent {
		return &domain.LimitExceededError{
			Kind:   "attachment_count",
			Limit:  int64(maxPerEvent),
			Actual: int64(count + 1),
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO attachments (event_id, key, filename, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uploaded_at`,
		att.EventID, att.Key, att.Filename, att.ContentType, att.SizeBytes,
	).Scan(&att.ID, &att.UploadedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &domain.ConflictError{Key: att.Key}
		}
		return fmt.Errorf("failed to insert attachment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit attachment insert: %w", err)
	}

	r.log.Info("Attachment row inserted",
		zap.Int64("event_id", att.EventID),
		zap.String("key", att.Key),
		zap.Int64("size_bytes", att.SizeBytes))

	return nil
}

// GetByKey returns the attachment row for an object key.
func (r *Repository) GetByKey(ctx context.Context, key string) (*domain.Attachment, error) {
	var att domain.Attachment
	row := r.client.Pool().QueryRow(ctx, `
		SELECT id, event_id, key, filename, content_type, size_bytes, uploaded_at
		FROM attachments WHERE key = $1`, key)
	err := row.Scan(&att.ID, &att.EventID, &att.Key, &att.Filename,
		&att.ContentType, &att.SizeBytes, &att.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "attachment", ID: key}
		}
		return nil, fmt.Errorf("failed to query attachment: %w", err)
	}
	return &att, nil
}

// ListKeys returns every attachment object key.
func (r *Repository) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := r.client.Pool().Query(ctx, "SELECT key FROM attachments")
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect attachment keys: %w", err)
	}
	return keys, nil
}
