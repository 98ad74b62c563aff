package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeTransient
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// HandlerError tags a handler failure so the consumer knows whether to retry.
type HandlerError struct {
	Type   ErrorType
	Reason string
	Err    error
}

func (e *HandlerError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

func NewTransientError(reason string, err error) *HandlerError {
	return &HandlerError{Type: ErrorTypeTransient, Reason: reason, Err: err}
}

func NewPermanentError(reason string, err error) *HandlerError {
	return &HandlerError{Type: ErrorTypePermanent, Reason: reason, Err: err}
}

// Last resort for errors that arrive as plain strings, e.g. from the mongo
// driver's server selection.
var transientFragments = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"server selection error",
	"timeout",
}

// ClassifyError decides whether a failed message is worth redelivering.
// Anything not recognised as an infrastructure hiccup is permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var tagged *HandlerError
	if errors.As(err, &tagged) {
		return tagged.Type
	}

	if isTransient(err) {
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var brokerErr kafka.Error
	if errors.As(err, &brokerErr) {
		return brokerErr.Temporary()
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func ShouldRetry(err error, attempt, maxRetries int) bool {
	if err == nil || attempt >= maxRetries {
		return false
	}
	return ClassifyError(err) == ErrorTypeTransient
}
