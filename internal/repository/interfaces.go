package repository

import (
	"context"
	"time"

	"github.com/randdane/life-log/internal/domain"
)

// SortMode selects event ordering.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortOldest    SortMode = "oldest"
	SortRelevance SortMode = "relevance"
)

// TagMatchMode selects how a multi-tag filter combines.
type TagMatchMode string

const (
	// TagMatchAll requires every requested tag (the default).
	TagMatchAll TagMatchMode = "all"
	// TagMatchAny requires at least one requested tag.
	TagMatchAny TagMatchMode = "any"
)

// EventFilter describes an event listing query.
type EventFilter struct {
	// Query is the normalized free-text query; empty means no text search.
	Query    string
	Tags     []string
	TagMatch TagMatchMode
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
	Sort     SortMode
}

// Offset returns the row offset for the filter's page.
func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// EventRepository defines event storage operations.
type EventRepository interface {
	// Create inserts the event and fills ID and CreatedAt.
	Create(ctx context.Context, event *domain.Event) error

	// Get returns the event with its attachments, or NotFoundError.
	Get(ctx context.Context, id int64) (*domain.Event, error)

	// List returns one page of matching events plus the total match count.
	List(ctx context.Context, filter EventFilter) ([]domain.Event, int64, error)

	// Update rewrites the event's mutable fields and its search document in
	// one statement. Returns NotFoundError for an unknown id.
	Update(ctx context.Context, event *domain.Event) error

	// DeleteReturningKeys removes the event, cascading its attachment rows
	// in the same transaction, and returns the removed object keys.
	DeleteReturningKeys(ctx context.Context, id int64) ([]string, error)

	// ExportAll returns every event with attachment metadata, newest first.
	ExportAll(ctx context.Context) ([]domain.Event, error)

	// Ping checks if the database connection is alive.
	Ping(ctx context.Context) error
}

// AttachmentRepository defines attachment row operations.
type AttachmentRepository interface {
	// EventExists reports whether the owning event row is present.
	EventExists(ctx context.Context, eventID int64) (bool, error)

	// CountForEvent returns the current attachment count for an event.
	CountForEvent(ctx context.Context, eventID int64) (int, error)

	// Insert adds the attachment row, filling ID and UploadedAt. The count
	// ceiling is re-checked under a lock on the owning event row, so
	// concurrent uploads cannot jointly exceed maxPerEvent.
	Insert(ctx context.Context, att *domain.Attachment, maxPerEvent int) error

	// GetByKey returns the attachment row for an object key.
	GetByKey(ctx context.Context, key string) (*domain.Attachment, error)

	// ListKeys returns every attachment object key.
	ListKeys(ctx context.Context) ([]string, error)
}
