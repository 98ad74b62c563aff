package errors

import "errors"

var (
	ErrNotFound = errors.New("review not found")

	ErrDuplicate = errors.New("booking already has a review")

	ErrAlreadyEdited = errors.New("review has already been edited")
)
