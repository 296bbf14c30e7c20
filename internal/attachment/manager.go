package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/objectstore"
	"github.com/randdane/life-log/internal/repository"
)

// sniffLen is how many leading bytes feed content-type sniffing.
const sniffLen = 512

// defaultPresignExpiry is used when the caller does not ask for one.
const defaultPresignExpiry = 15 * time.Minute

// Config carries the manager's injected limits. Nothing here is read from
// ambient process state.
type Config struct {
	MaxFileBytes     int64
	MaxPerEvent      int
	KeyPrefix        string
	PresignMaxExpiry time.Duration
}

// Uploader defines the attachment operations exposed to the HTTP layer.
type Uploader interface {
	Upload(ctx context.Context, eventID int64, body io.Reader, filename, declaredType string, declaredSize int64) (*domain.Attachment, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Manager owns attachment upload: validation, per-event limits, and the
// upload-then-record saga against the object store and the relational store.
type Manager struct {
	store     objectstore.Store
	repo      repository.AttachmentRepository
	validator ContentValidator
	config    Config
	retry     objectstore.RetryPolicy
	log       *zap.Logger
	now       func() time.Time
}

// NewManager creates a new attachment manager.
func NewManager(store objectstore.Store, repo repository.AttachmentRepository, validator ContentValidator, config Config, log *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		repo:      repo,
		validator: validator,
		config:    config,
		retry:     objectstore.DefaultRetry(),
		log:       log,
		now:       time.Now,
	}
}

// Upload runs the two-step saga: (1) stream the payload to the object store
// under a fresh key, (2) insert the attachment row. A failed step 2 triggers
// a best-effort compensating delete of the just-written object, so no orphan
// survives a clean failure. The payload is never buffered whole in memory.
func (m *Manager) Upload(ctx context.Context, eventID int64, body io.Reader, filename, declaredType string, declaredSize int64) (*domain.Attachment, error) {
	// Preconditions, all before any I/O to the store.
	if declaredSize <= 0 {
		return nil, &domain.ValidationError{Field: "size_bytes", Reason: "must be positive"}
	}
	if declaredSize > m.config.MaxFileBytes {
		return nil, &domain.LimitExceededError{
			Kind:   "file_size",
			Limit:  m.config.MaxFileBytes,
			Actual: declaredSize,
		}
	}

	exists, err := m.repo.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, &domain.NotFoundError{Resource: "event", ID: strconv.FormatInt(eventID, 10)}
	}

	// Advisory count check; the authoritative one runs inside the insert
	// transaction under the event-row lock.
	count, err := m.repo.CountForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}
	if count >= m.config.MaxPerEvent {
		return nil, &domain.LimitExceededError{
			Kind:   "attachment_count",
			Limit:  int64(m.config.MaxPerEvent),
			Actual: int64(count + 1),
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read upload stream: %w", err)
	}
	head = head[:n]

	contentType, err := m.validator.Validate(declaredType, head, filename)
	if err != nil {
		m.log.Warn("Upload rejected by content validation",
			zap.Int64("event_id", eventID),
			zap.String("filename", filename),
			zap.String("declared_type", declaredType),
			zap.Error(err))
		return nil, err
	}

	key := BuildKey(m.config.KeyPrefix, m.now(), filename)

	// Step 1: object write, fully outside any DB transaction. The sniffed
	// head is stitched back in front of the remaining stream. No retry
	// here: the stream cannot be replayed, and the compensation path plus
	// the reconciler cover a torn write.
	stream := io.MultiReader(bytes.NewReader(head), body)
	if err := m.store.Put(ctx, key, stream, declaredSize, contentType, filename); err != nil {
		return nil, err
	}

	// Step 2: record the row. Any failure here, including a concurrent
	// breach of the per-event ceiling or a cancelled caller, compensates
	// by deleting the object written in step 1.
	att := &domain.Attachment{
		EventID:     eventID,
		Key:         key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   declaredSize,
	}
	if err := m.repo.Insert(ctx, att, m.config.MaxPerEvent); err != nil {
		m.compensate(ctx, key)
		return nil, err
	}

	m.log.Info("Attachment uploaded",
		zap.Int64("event_id", eventID),
		zap.String("key", key),
		zap.Int64("size_bytes", declaredSize))

	return att, nil
}

// compensate deletes the object written by a saga whose record step failed.
// It runs detached from the caller's cancellation so an aborted request
// still cleans up. A failed delete is logged as an orphan candidate for the
// reconciler, not retried indefinitely.
func (m *Manager) compensate(ctx context.Context, key string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := objectstore.WithRetry(cleanupCtx, m.retry, func() error {
		return m.store.Delete(cleanupCtx, key)
	})
	if err != nil {
		m.log.Error("Compensating delete failed, object left for reconciler",
			zap.String("key", key),
			zap.NamedError("consistency", &domain.ConsistencyError{Kind: "orphan_candidate", Key: key}),
			zap.Error(err))
		return
	}

	m.log.Info("Compensating delete removed orphaned object", zap.String("key", key))
}

// PresignGet returns a time-limited retrieval URL for an attachment that
// exists in the relational store. Expiry is clamped to the configured
// maximum; zero or negative means the default.
func (m *Manager) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := m.repo.GetByKey(ctx, key); err != nil {
		return "", err
	}

	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	if expiry > m.config.PresignMaxExpiry {
		expiry = m.config.PresignMaxExpiry
	}

	var url string
	err := objectstore.WithRetry(ctx, m.retry, func() error {
		var err error
		url, err = m.store.PresignGet(ctx, key, expiry)
		return err
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
