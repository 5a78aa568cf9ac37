// Package staff lets a super-admin manage admin accounts.
package staff

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gatepass-registry/gatepass/internal/app/auth"
	"github.com/gatepass-registry/gatepass/internal/app/rolegate"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
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

type Backend interface {
	ListStaff(ctx context.Context, token string) ([]domain.StaffMember, error)
	DeleteStaff(ctx context.Context, token string, id domain.StaffID) error
}

// Registrar creates staff accounts. See auth.Service.
type Registrar interface {
	RegisterStaff(ctx context.Context, token string, in auth.StaffInput) error
}

type Sessions interface {
	Snapshot() session.Snapshot
}

type Service struct {
	backend   Backend
	registrar Registrar
	sessions  Sessions
}

func NewService(backend Backend, registrar Registrar, sessions Sessions) *Service {
	return &Service{backend: backend, registrar: registrar, sessions: sessions}
}

func (s *Service) authorize() (domain.Session, error) {
	sess := s.sessions.Snapshot().Session
	if !sess.Authenticated() || !rolegate.Can(sess.Role, rolegate.ActionManageAdmins) {
		return domain.Session{}, &Error{
			Status:  http.StatusForbidden,
			Code:    CodeForbidden,
			Message: "Only the super-admin can manage admins.",
		}
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context) ([]domain.StaffMember, error) {
	sess, err := s.authorize()
	if err != nil {
		return nil, err
	}
	members, err := s.backend.ListStaff(ctx, sess.Token)
	if err != nil {
		return nil, backendError(err, "Failed to load admins")
	}
	return members, nil
}

// Add registers a new admin. Validation and backend errors come back as *auth.Error.
func (s *Service) Add(ctx context.Context, in auth.StaffInput) error {
	sess, err := s.authorize()
	if err != nil {
		return err
	}
	return s.registrar.RegisterStaff(ctx, sess.Token, in)
}

// Remove deletes an admin account. The signed-in account cannot remove itself.
func (s *Service) Remove(ctx context.Context, id domain.StaffID) error {
	sess, err := s.authorize()
	if err != nil {
		return err
	}
	id = domain.StaffID(strings.TrimSpace(string(id)))
	if id == "" {
		return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidationFailed, Message: "An admin id is required."}
	}
	if string(id) == string(sess.ProfileID) {
		return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidationFailed, Message: "You cannot remove your own account."}
	}
	return backendError(s.backend.DeleteStaff(ctx, sess.Token, id), "Failed to remove admin")
}

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
	var se *registry.StatusError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Message
	if msg == "" {
		msg = fallback
	}
	code := CodeBackend
	if se.Status == http.StatusNotFound {
		code = CodeNotFound
	}
	return &Error{Status: se.Status, Code: code, Message: msg}
}
