package registry

import (
	"context"

	"github.com/gatepass-registry/gatepass/internal/domain"
)

// Credentials is the login exchange payload.
type Credentials struct {
	// Identifier is the account's mobile number.
	Identifier string
	Secret     string
	// ClaimedRole is the role the caller is attempting to assume. The backend decides
	// whether the account actually holds it.
	ClaimedRole domain.Role
}

// LoginResult is the backend's answer to a successful login exchange.
//
// Token may be empty when the backend accepted the credentials but issued no token;
// callers treat that as a failed login.
type LoginResult struct {
	Token   string
	Role    domain.Role
	Profile domain.Profile
}

// Registration is a self-service account registration.
type Registration struct {
	Name        string
	Mobile      string
	Email       string
	Password    string
	ClaimedRole domain.Role
}

// StaffRegistration is a staff account created by an authorized caller.
type StaffRegistration struct {
	Username string
	Email    string
	Mobile   string
	Password string
	Role     domain.Role
}

// Backend is the registry API consumed by the client.
//
// Every method taking a token sends it as a bearer credential; an empty token sends
// no Authorization header. A 401 from any call is reported as ErrUnauthorized.
type Backend interface {
	Login(ctx context.Context, c Credentials) (LoginResult, error)
	Register(ctx context.Context, r Registration) error
	RegisterStaff(ctx context.Context, token string, r StaffRegistration) error

	// SearchVehicles never returns an error for a backend-reported failure; that is a
	// Failure result. Errors are transport failures or ErrUnauthorized.
	SearchVehicles(ctx context.Context, token string, query string) (SearchResult, error)
	GetVehicle(ctx context.Context, token string, id domain.VehicleID) (domain.Vehicle, error)
	ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, token string, id domain.VehicleID) error

	ListStaff(ctx context.Context, token string) ([]domain.StaffMember, error)
	DeleteStaff(ctx context.Context, token string, id domain.StaffID) error
}
