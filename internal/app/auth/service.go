// Package auth performs the login and registration exchanges with the registry.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

// Establisher persists and publishes a session. See session.Mutator.
type Establisher interface {
	Establish(ctx context.Context, s domain.Session) error
}

type Service struct {
	backend  registry.Backend
	sessions Establisher
	log      *slog.Logger
}

func NewService(backend registry.Backend, sessions Establisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, sessions: sessions, log: logger.With("component", "auth")}
}

// Login exchanges credentials for a session and persists it before returning. The
// backend alone decides whether the account holds claimedRole; the returned session
// carries the role the backend granted.
func (s *Service) Login(ctx context.Context, identifier, secret string, claimedRole domain.Role) (domain.Session, error) {
	sess, err := s.exchange(ctx, identifier, secret, claimedRole)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.establish(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// LoginGuard is the general login screen entry point.
func (s *Service) LoginGuard(ctx context.Context, identifier, secret string) (domain.Session, error) {
	return s.Login(ctx, identifier, secret, domain.RoleGuard)
}

// LoginSuperAdmin is the admin login screen entry point.
func (s *Service) LoginSuperAdmin(ctx context.Context, identifier, secret string) (domain.Session, error) {
	return s.Login(ctx, identifier, secret, domain.RoleSuperAdmin)
}

func (s *Service) exchange(ctx context.Context, identifier, secret string, claimedRole domain.Role) (domain.Session, error) {
	identifier = strings.TrimSpace(identifier)
	details := map[string]any{}
	if identifier == "" {
		details["mobile"] = "required"
	}
	if secret == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return domain.Session{}, validationError("Please enter mobile number and password", details)
	}

	res, err := s.backend.Login(ctx, registry.Credentials{
		Identifier:  identifier,
		Secret:      secret,
		ClaimedRole: claimedRole,
	})
	if err != nil {
		if registry.IsTransport(err) {
			return domain.Session{}, transportError(err)
		}
		msg := registry.BackendMessage(err)
		if msg == "" {
			msg = "Login failed"
		}
		return domain.Session{}, &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: msg}
	}
	if res.Token == "" {
		return domain.Session{}, &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "No token received"}
	}

	// The claimed role is a request, never a grant.
	if res.Role == "" {
		return domain.Session{}, &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "No role received"}
	}
	profile := res.Profile
	return domain.Session{
		Token:     res.Token,
		Role:      res.Role,
		ProfileID: profile.ID,
		Profile:   profile,
	}, nil
}

func (s *Service) establish(ctx context.Context, sess domain.Session) error {
	if err := s.sessions.Establish(ctx, sess); err != nil {
		s.log.ErrorContext(ctx, "persist session", "err", err)
		return &Error{
			Status:  http.StatusInternalServerError,
			Code:    CodeSessionNotPersisted,
			Message: "Signed in, but the session could not be saved on this device.",
		}
	}
	return nil
}

type RegisterInput struct {
	Name     string
	Mobile   string
	Email    string // optional
	Password string
}

// Register creates an account. It does not sign in; callers log in afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput, claimedRole domain.Role) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Email = strings.TrimSpace(in.Email)

	details := map[string]any{}
	if in.Name == "" {
		details["name"] = "required"
	}
	if in.Mobile == "" {
		details["mobile"] = "required"
	}
	if in.Password == "" {
		details["password"] = "required"
	}
	if in.Email != "" {
		if err := validateEmail(in.Email); err != nil {
			details["email"] = "must be a valid email address"
		}
	}
	if len(details) > 0 {
		return validationError("Please fill in all required fields", details)
	}

	err := s.backend.Register(ctx, registry.Registration{
		Name:        in.Name,
		Mobile:      in.Mobile,
		Email:       in.Email,
		Password:    in.Password,
		ClaimedRole: claimedRole,
	})
	return registrationError(err)
}

type StaffInput struct {
	Username string
	Email    string
	Mobile   string
	Password string
}

// RegisterStaff creates an admin account on behalf of the signed-in super-admin.
func (s *Service) RegisterStaff(ctx context.Context, token string, in StaffInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)

	details := map[string]any{}
	if in.Username == "" {
		details["username"] = "required"
	}
	if in.Email == "" {
		details["email"] = "required"
	} else if err := validateEmail(in.Email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if in.Password == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return validationError("Please fill in all required fields", details)
	}

	err := s.backend.RegisterStaff(ctx, token, registry.StaffRegistration{
		Username: in.Username,
		Email:    in.Email,
		Mobile:   in.Mobile,
		Password: in.Password,
		Role:     domain.RoleAdmin,
	})
	return registrationError(err)
}

func registrationError(err error) error {
	if err == nil {
		return nil
	}
	if registry.IsTransport(err) {
		return transportError(err)
	}
	status := http.StatusBadRequest
	var se *registry.StatusError
	if errors.As(err, &se) {
		status = se.Status
	} else if errors.Is(err, registry.ErrUnauthorized) {
		status = http.StatusUnauthorized
	}
	msg := registry.BackendMessage(err)
	if msg == "" {
		msg = "Registration failed"
	}
	return &Error{Status: status, Code: CodeRegistrationFailed, Message: msg}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("invalid email")
	}
	return nil
}
