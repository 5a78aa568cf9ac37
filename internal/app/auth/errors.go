package auth

import "net/http"

const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeRegistrationFailed  = "REGISTRATION_FAILED"
	CodeTransport           = "TRANSPORT"
	CodeSessionNotPersisted = "SESSION_NOT_PERSISTED"
)

// Error is an application-layer error shown to the user on the login and register
// screens. Message is user-facing.
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

func validationError(message string, details map[string]any) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: message,
		Details: details,
	}
}

func transportError(err error) *Error {
	return &Error{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeTransport,
		Message: "Unable to reach the registry. Check the connection and try again.",
		Details: map[string]any{"cause": err.Error()},
	}
}
