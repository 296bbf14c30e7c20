package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/repository"
)

const eventColumns = "id, created_at, timestamp, title, description, tags, metadata, search_document"

// Create inserts the event row and fills ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, event *domain.Event) error {
	metadata, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}

	row := r.client.Pool().QueryRow(ctx, `
		INSERT INTO events (timestamp, title, description, tags, metadata, search_document)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING id, created_at`,
		event.Timestamp, event.Title, event.Description, tagsOrEmpty(event.Tags), metadata, event.SearchDocument)

	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	event.Attachments = []domain.Attachment{}
	return nil
}

// Get returns the event with its attachments.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.client.Pool().QueryRow(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = $1", id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "event", ID: strconv.FormatInt(id, 10)}
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	if err := r.loadAttachments(ctx, []*domain.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

// List returns one page of matching events plus the total match count.
func (r *Repository) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int64, error) {
	var conds []string
	var args []any
	queryArg := 0

	if filter.Query != "" {
		args = append(args, filter.Query)
		queryArg = len(args)
		conds = append(conds, fmt.Sprintf(
			"to_tsvector('simple', search_document) @@ plainto_tsquery('simple', $%d)", queryArg))
	}
	if len(filter.Tags) > 0 {
		op := "@>" // AND: event must carry every requested tag
		if filter.TagMatch == repository.TagMatchAny {
			op = "&&"
		}
		args = append(args, filter.Tags)
		conds = append(conds, fmt.Sprintf("tags %s $%d", op, len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countRow := r.client.Pool().QueryRow(ctx, "SELECT count(*) FROM events "+where, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var orderBy string
	switch filter.Sort {
	case repository.SortRelevance:
		orderBy = fmt.Sprintf(
			"ORDER BY ts_rank(to_tsvector('simple', search_document), plainto_tsquery('simple', $%d)) DESC, timestamp DESC, id DESC",
			queryArg)
	case repository.SortOldest:
		orderBy = "ORDER BY timestamp ASC, id ASC"
	default:
		orderBy = "ORDER BY timestamp DESC, id DESC"
	}

	args = append(args, filter.PageSize)
	limitArg := len(args)
	args = append(args, filter.Offset())
	offsetArg := len(args)

	sql := fmt.Sprintf("SELECT %s FROM events %s %s LIMIT $%d OFFSET $%d",
		eventColumns, where, orderBy, limitArg, offsetArg)

	rows, err := r.client.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}

	refs := make([]*domain.Event, len(events))
	for i := range events {
		refs[i] = &events[i]
	}
	if err := r.loadAttachments(ctx, refs); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Update rewrites the event's mutable fields and its search document in one
// statement, so a reader never observes them out of sync.
func (r *Repository) Update(ctx context.Context, event *domain.Event) error {
	metadata, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}

	tag, err := r.client.Pool().Exec(ctx, `
		UPDATE events
		SET timestamp = $2, title = $3, description = $4, tags = $5,
		    metadata = $6::jsonb, search_document = $7
		WHERE id = $1`,
		event.ID, event.Timestamp, event.Title, event.Description,
		tagsOrEmpty(event.Tags), metadata, event.SearchDocument)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "event", ID: strconv.FormatInt(event.ID, 10)}
	}
	return nil
}

// DeleteReturningKeys removes the event inside one transaction. The FK
// cascade removes the attachment rows atomically with it; the keys are read
// first so the caller can clean up the backing objects afterwards.
func (r *Repository) DeleteReturningKeys(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.client.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, "SELECT key FROM attachments WHERE event_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect attachment keys: %w", err)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &domain.NotFoundError{Resource: "event", ID: strconv.FormatInt(id, 10)}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit event deletion: %w", err)
	}

	r.log.Info("Event deleted",
		zap.Int64("event_id", id),
		zap.Int("attachment_count", len(keys)))

	return keys, nil
}

// ExportAll returns every event with attachment metadata, newest first.
func (r *Repository) ExportAll(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.client.Pool().Query(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY timestamp DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query events for export: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Event, len(events))
	for i := range events {
		refs[i] = &events[i]
	}
	if err := r.loadAttachments(ctx, refs); err != nil {
		return nil, err
	}
	return events, nil
}

// loadAttachments fills Attachments for the given events in one query.
func (r *Repository) loadAttachments(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Event, len(events))
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ev.Attachments = []domain.Attachment{}
		byID[ev.ID] = ev
		ids = append(ids, ev.ID)
	}

	rows, err := r.client.Pool().Query(ctx, `
		SELECT id, event_id, key, filename, content_type, size_bytes, uploaded_at
		FROM attachments WHERE event_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.EventID, &att.Key, &att.Filename,
			&att.ContentType, &att.SizeBytes, &att.UploadedAt); err != nil {
			return fmt.Errorf("failed to scan attachment row: %w", err)
		}
		if ev, ok := byID[att.EventID]; ok {
			ev.Attachments = append(ev.Attachments, att)
		}
	}
	return rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	var metadata []byte
	if err := row.Scan(&event.ID, &event.CreatedAt, &event.Timestamp, &event.Title,
		&event.Description, &event.Tags, &metadata, &event.SearchDocument); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode event metadata: %w", err)
		}
	}
	return &event, nil
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	events := []domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func marshalMetadata(m domain.Metadata) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode event metadata: %w", err)
	}
	return string(raw), nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
