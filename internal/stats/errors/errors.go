package errors

import "errors"

var (
	ErrAlreadyProjected = errors.New("event already projected")
)
