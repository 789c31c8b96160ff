package model

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

const (
	MessageUnreachable = "server unreachable"
	MessageGeneric     = "request failed"
)

// NormalizedError is the only error shape the API client returns. Status is
// zero when no HTTP response reached the client.
type NormalizedError struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func NewRejectedError(status int, message string, data []byte) *NormalizedError {
	if message == "" {
		message = fmt.Sprintf("%s: %d %s", MessageGeneric, status, http.StatusText(status))
	}
	e := &NormalizedError{Status: status, Message: message}
	if len(data) > 0 {
		e.Data = json.RawMessage(data)
	}
	return e
}

func NewUnreachableError(cause error) *NormalizedError {
	return &NormalizedError{Message: MessageUnreachable, cause: cause}
}

func NewMalformedError(cause error) *NormalizedError {
	msg := MessageGeneric
	if cause != nil {
		msg = cause.Error()
	}
	return &NormalizedError{Message: msg, cause: cause}
}

func (e *NormalizedError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *NormalizedError) Unwrap() error {
	return e.cause
}

func (e *NormalizedError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Unreachable reports a sent request that got no response.
func (e *NormalizedError) Unreachable() bool {
	return e.Status == 0 && e.Message == MessageUnreachable
}

func AsNormalized(err error) (*NormalizedError, bool) {
	var ne *NormalizedError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool {
	ne, ok := AsNormalized(err)
	return ok && ne.Unauthorized()
}

func IsUnreachable(err error) bool {
	ne, ok := AsNormalized(err)
	return ok && ne.Unreachable()
}

// IsRejected reports an error carrying a server status code.
func IsRejected(err error) bool {
	ne, ok := AsNormalized(err)
	return ok && ne.Status != 0
}
