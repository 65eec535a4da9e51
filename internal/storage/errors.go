package storage

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicate is returned when a unique constraint is violated, e.g.
	// two tokens with the same token string.
	ErrDuplicate = errors.New("resource already exists")

	// ErrQuotaExceeded is returned by ConsumeUsage when the token has
	// already reached its maximum usage count.
	ErrQuotaExceeded = errors.New("usage quota exceeded")
)
