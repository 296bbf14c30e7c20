package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a bad field value. Caller's fault, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown event or attachment.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// LimitExceededError reports a breached size, content-type, or per-event
// count ceiling.
type LimitExceededError struct {
	Kind   string
	Limit  int64
	Actual int64
	Detail string
}

func (e *LimitExceededError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s not allowed: %s", e.Kind, e.Detail)
	}
	if e.Actual > 0 {
		return fmt.Sprintf("%s limit exceeded: %d > %d", e.Kind, e.Actual, e.Limit)
	}
	return fmt.Sprintf("%s limit exceeded (max %d)", e.Kind, e.Limit)
}

// ConflictError reports a unique-key collision on an attachment object key.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("object key %q already exists", e.Key)
}

// StorageError reports an object-store I/O failure. Transient failures may
// be retried a bounded number of times; permanent ones surface immediately.
type StorageError struct {
	Op        string
	Key       string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Key != "" {
		return fmt.Sprintf("object store %s %q: %s failure: %v", e.Op, e.Key, kind, e.Err)
	}
	return fmt.Sprintf("object store %s: %s failure: %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports a reconciler-detected divergence between the
// relational rows and the stored objects. Informational, never surfaced to
// interactive callers.
type ConsistencyError struct {
	Kind string
	Key  string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: %s for key %q", e.Kind, e.Key)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsLimitExceeded reports whether err is a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsTransientStorage reports whether err is a StorageError marked transient.
func IsTransientStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Transient
}

// IsStorage reports whether err is any StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
