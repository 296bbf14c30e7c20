// Package objectstore defines the contract this service needs from an
// S3-compatible blob store. Implementations must classify failures as
// transient or permanent (domain.StorageError) so callers can decide
// whether to retry.
package objectstore

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object as seen by a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store defines object storage operations.
type Store interface {
	// EnsureBucket creates the configured bucket if it doesn't exist.
	EnsureBucket(ctx context.Context) error

	// Put streams length bytes to the store under key. The write is
	// all-or-nothing at object granularity: an aborted upload leaves no
	// partial object behind.
	Put(ctx context.Context, key string, body io.Reader, length int64, contentType, originalFilename string) error

	// PresignGet returns a time-limited, credential-free retrieval URL.
	// Existence of the key is not verified here.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns every object under prefix.
	ListKeys(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
