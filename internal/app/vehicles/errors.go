package vehicles

import (
	"errors"
	"net/http"

	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeBackend          = "BACKEND"
	CodeTransport        = "TRANSPORT"
)

// Error is an application-layer error for vehicle record management.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func forbidden(action string) *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Code:    CodeForbidden,
		Message: "Your role does not allow this action.",
		Details: map[string]any{"action": action},
	}
}

// backendError maps a registry failure; fallback is the message used when the
// backend supplied none.
func backendError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "Your session has expired. Please sign in again."}
	case registry.IsTransport(err):
		return &Error{Status: http.StatusServiceUnavailable, Code: CodeTransport, Message: "Unable to reach the registry.", Details: map[string]any{"cause": err.Error()}}
	}
	msg := registry.BackendMessage(err)
	if msg == "" {
		msg = fallback
	}
	var se *registry.StatusError
	if errors.As(err, &se) {
		code := CodeBackend
		if se.Status == http.StatusNotFound {
			code = CodeNotFound
		}
		return &Error{Status: se.Status, Code: code, Message: msg}
	}
	return err
}
