package s3

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/randdane/life-log/internal/domain"
)

// classify wraps an SDK error as a domain.StorageError with a
// transient-vs-permanent signal so callers can decide whether to retry.
func classify(op, key string, err error) error {
	return &domain.StorageError{
		Op:        op,
		Key:       key,
		Transient: isTransient(err),
		Err:       err,
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded",
			"RequestTimeout", "InternalError", "ServiceUnavailable":
			return true
		case "NoSuchKey", "NoSuchBucket", "NotFound", "AccessDenied",
			"InvalidAccessKeyId", "SignatureDoesNotMatch", "EntityTooLarge":
			return false
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	// Connection-level failures with no API response are worth retrying.
	return true
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NoSuchBucket" || code == "NotFound"
	}
	return false
}
