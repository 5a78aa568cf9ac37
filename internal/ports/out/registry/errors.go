package registry

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the backend rejected the bearer credential.
var ErrUnauthorized = errors.New("registry: unauthorized")

// StatusError is a non-success response from the backend.
type StatusError struct {
	Status int
	// Message is the backend-supplied reason, verbatim. It may be empty.
	Message string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("registry: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("registry: status %d", e.Status)
}

// TransportError is a failure to complete an exchange with the backend: connection
// errors, timeouts, and undecodable responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("registry: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// BackendMessage extracts the backend-supplied message from err, if any.
func BackendMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
