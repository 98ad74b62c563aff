package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means the stored status no longer matches the one the
	// caller read, so the compare-and-set update was not applied.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrDuplicateCode = errors.New("booking code already exists")
)
