// Package vehicles manages vehicle pass records on behalf of the signed-in user.
package vehicles

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gatepass-registry/gatepass/internal/app/resolver"
	"github.com/gatepass-registry/gatepass/internal/app/rolegate"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
)

const dateLayout = "2006-01-02"

// Backend is the part of registry.Backend used for record management.
type Backend interface {
	GetVehicle(ctx context.Context, token string, id domain.VehicleID) (domain.Vehicle, error)
	ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, token string, id domain.VehicleID) error
}

type Sessions interface {
	Snapshot() session.Snapshot
	Valid(epoch uint64) bool
}

type Service struct {
	backend  Backend
	resolver *resolver.Resolver
	sessions Sessions
	clk      clockport.Clock
}

func NewService(backend Backend, r *resolver.Resolver, sessions Sessions, clk clockport.Clock) *Service {
	return &Service{backend: backend, resolver: r, sessions: sessions, clk: clk}
}

func (s *Service) authorize(action rolegate.Action) (string, error) {
	sess := s.sessions.Snapshot().Session
	if !sess.Authenticated() || !rolegate.Can(sess.Role, action) {
		return "", forbidden(string(action))
	}
	return sess.Token, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Vehicle, error) {
	token, err := s.authorize(rolegate.ActionViewVehicles)
	if err != nil {
		return nil, err
	}
	vs, err := s.backend.ListVehicles(ctx, token)
	if err != nil {
		return nil, backendError(err, "Failed to load vehicles")
	}
	return vs, nil
}

func (s *Service) Get(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	token, err := s.authorize(rolegate.ActionViewVehicles)
	if err != nil {
		return domain.Vehicle{}, err
	}
	v, err := s.backend.GetVehicle(ctx, token, id)
	if err != nil {
		return domain.Vehicle{}, backendError(err, "Vehicle not found")
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Vehicle, error) {
	token, err := s.authorize(rolegate.ActionManageVehicles)
	if err != nil {
		return domain.Vehicle{}, err
	}

	v := domain.Vehicle{
		VehicleNumber:    strings.TrimSpace(in.VehicleNumber),
		PassNumber:       strings.TrimSpace(in.PassNumber),
		FlatNumber:       strings.TrimSpace(in.FlatNumber),
		OwnerName:        strings.TrimSpace(in.OwnerName),
		OwnerContact:     strings.TrimSpace(in.OwnerContact),
		DLOrRCNumber:     strings.TrimSpace(in.DLOrRCNumber),
		AlternateContact: strings.TrimSpace(in.AlternateContact),
		Email:            strings.TrimSpace(in.Email),
		PermanentAddress: strings.TrimSpace(in.PermanentAddress),
		FlatOwnerName:    strings.TrimSpace(in.FlatOwnerName),
		VehicleType:      strings.TrimSpace(in.VehicleType),
		ValidTill:        strings.TrimSpace(in.ValidTill),
	}
	if v.ValidTill == "" {
		v.ValidTill = s.clk.Now().UTC().Format(dateLayout)
	}
	if err := validate(v); err != nil {
		return domain.Vehicle{}, err
	}

	created, err := s.backend.CreateVehicle(ctx, token, v)
	if err != nil {
		return domain.Vehicle{}, backendError(err, "Failed to add vehicle")
	}
	return created, nil
}

// UpdateScreen is the update flow's handle on the service. Lookups go through a
// resolver.Screen: only the latest Find or Update lookup delivers a target, and an
// Update whose lookup was superseded saves nothing.
type UpdateScreen struct {
	svc    *Service
	lookup *resolver.Screen
}

// OpenUpdateScreen is called when the update screen mounts.
func (s *Service) OpenUpdateScreen() *UpdateScreen {
	return &UpdateScreen{svc: s, lookup: resolver.NewScreen(s.resolver, s.sessions)}
}

// Find locates the record an update targets, using the same resolution as search.
func (u *UpdateScreen) Find(ctx context.Context, query string) (domain.Vehicle, error) {
	if _, err := u.svc.authorize(rolegate.ActionManageVehicles); err != nil {
		return domain.Vehicle{}, err
	}
	return u.find(ctx, query)
}

func (u *UpdateScreen) find(ctx context.Context, query string) (domain.Vehicle, error) {
	out, err := u.lookup.Resolve(ctx, query)
	if err != nil {
		return domain.Vehicle{}, resolverError(err)
	}
	if !out.Found {
		return domain.Vehicle{}, &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: "No vehicle found."}
	}
	return out.Vehicle, nil
}

// Update resolves query to a record, applies p and saves the result.
func (u *UpdateScreen) Update(ctx context.Context, query string, p Patch) (domain.Vehicle, error) {
	if p.Empty() {
		return domain.Vehicle{}, &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidationFailed, Message: "Nothing to update."}
	}
	token, err := u.svc.authorize(rolegate.ActionManageVehicles)
	if err != nil {
		return domain.Vehicle{}, err
	}
	target, err := u.find(ctx, query)
	if err != nil {
		return domain.Vehicle{}, err
	}

	v := apply(target, p)
	if err := validate(v); err != nil {
		return domain.Vehicle{}, err
	}
	updated, err := u.svc.backend.UpdateVehicle(ctx, token, v)
	if err != nil {
		return domain.Vehicle{}, backendError(err, "Update failed")
	}
	return updated, nil
}

// Close is called when the update screen unmounts.
func (u *UpdateScreen) Close() { u.lookup.Close() }

func (s *Service) Delete(ctx context.Context, id domain.VehicleID) error {
	token, err := s.authorize(rolegate.ActionManageVehicles)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(id)) == "" {
		return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidationFailed, Message: "A record id is required."}
	}
	return backendError(s.backend.DeleteVehicle(ctx, token, id), "Failed to delete vehicle")
}

func apply(v domain.Vehicle, p Patch) domain.Vehicle {
	set := func(dst *string, o Optional[string]) {
		if o.IsSpecified() {
			*dst = strings.TrimSpace(o.Value())
		}
	}
	set(&v.VehicleNumber, p.VehicleNumber)
	set(&v.PassNumber, p.PassNumber)
	set(&v.FlatNumber, p.FlatNumber)
	set(&v.OwnerName, p.OwnerName)
	set(&v.OwnerContact, p.OwnerContact)
	set(&v.DLOrRCNumber, p.DLOrRCNumber)
	set(&v.AlternateContact, p.AlternateContact)
	set(&v.Email, p.Email)
	set(&v.PermanentAddress, p.PermanentAddress)
	set(&v.FlatOwnerName, p.FlatOwnerName)
	set(&v.VehicleType, p.VehicleType)
	set(&v.ValidTill, p.ValidTill)
	// Legacy records keep their plate in RegistrationNumber until edited.
	if v.VehicleNumber == "" {
		v.VehicleNumber = v.RegistrationNumber
	}
	return v
}

func validate(v domain.Vehicle) error {
	details := map[string]any{}
	required := map[string]string{
		"vehicleNumber": v.VehicleNumber,
		"passNumber":    v.PassNumber,
		"flatNumber":    v.FlatNumber,
		"ownerName":     v.OwnerName,
		"ownerContact":  v.OwnerContact,
	}
	for field, value := range required {
		if value == "" {
			details[field] = "required"
		}
	}
	if v.Email != "" {
		if addr, err := mail.ParseAddress(v.Email); err != nil || addr.Address != v.Email {
			details["email"] = "must be a valid email address"
		}
	}
	if v.ValidTill != "" {
		if _, err := time.Parse(dateLayout, v.ValidTill); err != nil {
			details["validTill"] = "must be a date (YYYY-MM-DD)"
		}
	}
	if len(details) > 0 {
		return &Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeValidationFailed,
			Message: "Please fill in all required fields",
			Details: details,
		}
	}
	return nil
}

func resolverError(err error) error {
	var re *resolver.Error
	if !errors.As(err, &re) {
		return err
	}
	if re.Kind == resolver.KindUnauthorized {
		return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "Your session has expired. Please sign in again."}
	}
	return &Error{Status: http.StatusServiceUnavailable, Code: CodeTransport, Message: "Unable to reach the registry.", Details: map[string]any{"cause": re.Err.Error()}}
}
