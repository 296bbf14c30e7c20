// Package deleter orchestrates event deletion across the relational store
// and the object store. The relational cascade is the atomic, authoritative
// step; object cleanup afterwards is best-effort and eventually consistent.
package deleter

import (
	"context"

	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/objectstore"
	"github.com/randdane/life-log/internal/repository"
)

// DeletionReport summarizes one cascade delete. FailedKeys holds objects
// whose deletion failed; they become orphan candidates for the reconciler.
type DeletionReport struct {
	EventID        int64    `json:"event_id"`
	AttachmentRows int      `json:"attachment_rows"`
	ObjectsDeleted int      `json:"objects_deleted"`
	FailedKeys     []string `json:"failed_keys,omitempty"`
}

// CascadeDeleter removes an event, its attachment rows, and their backing
// objects.
type CascadeDeleter struct {
	repo  repository.EventRepository
	store objectstore.Store
	retry objectstore.RetryPolicy
	log   *zap.Logger
}

// NewCascadeDeleter creates a new cascade deleter.
func NewCascadeDeleter(repo repository.EventRepository, store objectstore.Store, log *zap.Logger) *CascadeDeleter {
	return &CascadeDeleter{
		repo:  repo,
		store: store,
		retry: objectstore.DefaultRetry(),
		log:   log,
	}
}

// DeleteEvent deletes the event row — the FK cascade removes attachment rows
// in the same transaction — then issues one best-effort object delete per
// removed key. Object failures are recorded in the report, never retried
// synchronously beyond the bounded transient retry.
func (d *CascadeDeleter) DeleteEvent(ctx context.Context, id int64) (*DeletionReport, error) {
	keys, err := d.repo.DeleteReturningKeys(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &DeletionReport{
		EventID:        id,
		AttachmentRows: len(keys),
	}

	for _, key := range keys {
		err := objectstore.WithRetry(ctx, d.retry, func() error {
			return d.store.Delete(ctx, key)
		})
		if err != nil {
			d.log.Warn("Object delete failed during cascade, left for reconciler",
				zap.Int64("event_id", id),
				zap.String("key", key),
				zap.Error(err))
			report.FailedKeys = append(report.FailedKeys, key)
			continue
		}
		report.ObjectsDeleted++
	}

	d.log.Info("Cascade delete finished",
		zap.Int64("event_id", id),
		zap.Int("attachment_rows", report.AttachmentRows),
		zap.Int("objects_deleted", report.ObjectsDeleted),
		zap.Int("objects_failed", len(report.FailedKeys)))

	return report, nil
}
