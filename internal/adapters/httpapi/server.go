// Package httpapi is a local implementation of the vehicle pass registry API, used
// for development and end-to-end tests of the client.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
	"github.com/gatepass-registry/gatepass/internal/ports/out/idempotency"
)

const (
	maxBodyBytes         = 64 << 10
	idempotencyKeyHeader = "Idempotency-Key"
)

type Server struct {
	dir    *Directory
	idem   idempotency.Store
	tokens *sessiontoken.Issuer
	clk    clockport.Clock
	log    *slog.Logger
}

// NewServer builds the registry API over dir. idem may be nil, which disables
// Idempotency-Key replay.
func NewServer(dir *Directory, idem idempotency.Store, tokens *sessiontoken.Issuer, clk clockport.Clock, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dir: dir, idem: idem, tokens: tokens, clk: clk, log: logger}
}

// SeedSuperAdmin creates the initial super-admin account unless one already exists.
func (s *Server) SeedSuperAdmin(ctx context.Context, mobile, password string) error {
	if len(s.dir.accountsWithRole(string(domain.RoleSuperAdmin))) > 0 {
		return nil
	}
	_, err := s.dir.addAccount(account{
		Name:     "Super Admin",
		Username: "superadmin",
		Mobile:   mobile,
		Role:     string(domain.RoleSuperAdmin),
	}, password, s.clk.Now())
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "seeded super-admin", "mobile", mobile)
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token  string                    `json:"token"`
	Role   string                    `json:"role"`
	ID     string                    `json:"_id"`
	Name   string                    `json:"name"`
	Mobile string                    `json:"mobile"`
	Email  nullable.Nullable[string] `json:"email"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.Mobile)
	if id == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Mobile and password are required")
		return
	}

	a, err := s.dir.authenticate(id, req.Password)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	// A super-admin claim must be backed by the account; any other claim gets the
	// account's actual role.
	if req.Role == string(domain.RoleSuperAdmin) && a.Role != string(domain.RoleSuperAdmin) {
		writeMessage(w, http.StatusForbidden, "Access denied: not a super admin")
		return
	}

	token, err := s.tokens.Mint(a.ID, a.Role, a.Mobile)
	if err != nil {
		s.log.ErrorContext(r.Context(), "mint token", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	name := a.Name
	if name == "" {
		name = a.Username
	}
	resp := loginResponse{Token: token, Role: a.Role, ID: a.ID, Name: name, Mobile: a.Mobile}
	if a.Email != "" {
		resp.Email = nullable.NewNullableWithValue(a.Email)
	} else {
		resp.Email = nullable.NewNullNullable[string]()
	}
	writeJSON(w, http.StatusOK, resp)
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = string(domain.RoleGuard)
	}

	switch domain.Role(role) {
	case domain.RoleGuard:
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Mobile) == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "Name, mobile and password are required")
			return
		}
	case domain.RoleAdmin:
		claims, status, msg := authenticate(s.tokens, r)
		if status != 0 {
			writeMessage(w, status, msg)
			return
		}
		if claims.Role != string(domain.RoleSuperAdmin) {
			writeMessage(w, http.StatusForbidden, "Only the super admin can register admins")
			return
		}
		if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "Username, email and password are required")
			return
		}
	default:
		writeMessage(w, http.StatusForbidden, "Cannot register this role")
		return
	}

	_, err := s.dir.addAccount(account{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Mobile:   strings.TrimSpace(req.Mobile),
		Email:    strings.TrimSpace(req.Email),
		Role:     role,
	}, req.Password, s.clk.Now())
	switch {
	case errors.Is(err, errDuplicate):
		writeMessage(w, http.StatusConflict, "User already exists")
	case err != nil:
		s.log.ErrorContext(r.Context(), "register", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	default:
		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

type staffResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Role     string `json:"role"`
}

func (s *Server) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins := s.dir.accountsWithRole(string(domain.RoleAdmin))
	out := make([]staffResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, staffResponse{ID: a.ID, Username: a.Username, Name: a.Name, Email: a.Email, Mobile: a.Mobile, Role: a.Role})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.dir.deleteAccount(id, string(domain.RoleAdmin)); err != nil {
		writeMessage(w, http.StatusNotFound, "Admin not found")
		return
	}
	writeMessage(w, http.StatusOK, "Admin removed")
}

type vehicleResponse struct {
	ID                 string    `json:"_id"`
	VehicleNumber      string    `json:"vehicleNumber"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	PassNumber         string    `json:"passNumber"`
	FlatNumber         string    `json:"flatNumber"`
	FlatOwnerName      string    `json:"flatOwnerName,omitempty"`
	OwnerName          string    `json:"ownerName"`
	OwnerContact       string    `json:"ownerContact"`
	AlternateContact   string    `json:"alternateContact,omitempty"`
	Email              string    `json:"email,omitempty"`
	DLOrRCNumber       string    `json:"dlOrRcNumber,omitempty"`
	PermanentAddress   string    `json:"permanentAddress,omitempty"`
	VehicleType        string    `json:"vehicleType,omitempty"`
	ValidTill          string    `json:"validTill,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toVehicleResponse(v vehicleRecord) vehicleResponse {
	validTill := v.ValidTill
	if validTill != "" {
		// Stored as a date, served as a timestamp the way a document store would.
		validTill += "T00:00:00.000Z"
	}
	return vehicleResponse{
		ID:                 v.ID,
		VehicleNumber:      v.VehicleNumber,
		RegistrationNumber: v.RegistrationNumber,
		PassNumber:         v.PassNumber,
		FlatNumber:         v.FlatNumber,
		FlatOwnerName:      v.FlatOwnerName,
		OwnerName:          v.OwnerName,
		OwnerContact:       v.OwnerContact,
		AlternateContact:   v.AlternateContact,
		Email:              v.Email,
		DLOrRCNumber:       v.DLOrRCNumber,
		PermanentAddress:   v.PermanentAddress,
		VehicleType:        v.VehicleType,
		ValidTill:          validTill,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

// vehicleRequest is a create body or an update patch. On update, unspecified fields
// are kept and null clears a field.
type vehicleRequest struct {
	VehicleNumber      nullable.Nullable[string] `json:"vehicleNumber"`
	RegistrationNumber nullable.Nullable[string] `json:"registrationNumber"`
	PassNumber         nullable.Nullable[string] `json:"passNumber"`
	FlatNumber         nullable.Nullable[string] `json:"flatNumber"`
	FlatOwnerName      nullable.Nullable[string] `json:"flatOwnerName"`
	OwnerName          nullable.Nullable[string] `json:"ownerName"`
	OwnerContact       nullable.Nullable[string] `json:"ownerContact"`
	AlternateContact   nullable.Nullable[string] `json:"alternateContact"`
	Email              nullable.Nullable[string] `json:"email"`
	DLOrRCNumber       nullable.Nullable[string] `json:"dlOrRcNumber"`
	PermanentAddress   nullable.Nullable[string] `json:"permanentAddress"`
	VehicleType        nullable.Nullable[string] `json:"vehicleType"`
	ValidTill          nullable.Nullable[string] `json:"validTill"`
}

func (req vehicleRequest) applyTo(v *vehicleRecord) {
	set := func(dst *string, n nullable.Nullable[string]) {
		if !n.IsSpecified() {
			return
		}
		if n.IsNull() {
			*dst = ""
			return
		}
		val, _ := n.Get()
		*dst = strings.TrimSpace(val)
	}
	set(&v.VehicleNumber, req.VehicleNumber)
	set(&v.RegistrationNumber, req.RegistrationNumber)
	set(&v.PassNumber, req.PassNumber)
	set(&v.FlatNumber, req.FlatNumber)
	set(&v.FlatOwnerName, req.FlatOwnerName)
	set(&v.OwnerName, req.OwnerName)
	set(&v.OwnerContact, req.OwnerContact)
	set(&v.AlternateContact, req.AlternateContact)
	set(&v.Email, req.Email)
	set(&v.DLOrRCNumber, req.DLOrRCNumber)
	set(&v.PermanentAddress, req.PermanentAddress)
	set(&v.VehicleType, req.VehicleType)
	set(&v.ValidTill, req.ValidTill)
	if i := strings.IndexByte(v.ValidTill, 'T'); i > 0 {
		v.ValidTill = v.ValidTill[:i]
	}
}

var errMissingFields = errors.New("missing required fields")

func requireVehicleFields(v vehicleRecord) error {
	if v.VehicleNumber == "" || v.PassNumber == "" || v.FlatNumber == "" || v.OwnerName == "" || v.OwnerContact == "" {
		return errMissingFields
	}
	return nil
}

func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vs := s.dir.listVehicles()
	out := make([]vehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVehicleResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) SearchVehicles(w http.ResponseWriter, r *http.Request) {
	q, err := searchQueryParam(r)
	if err != nil || q == "" {
		writeMessage(w, http.StatusBadRequest, "Search query is required")
		return
	}
	exact, partial := s.dir.search(q)
	if exact != nil {
		writeJSON(w, http.StatusOK, toVehicleResponse(*exact))
		return
	}
	if len(partial) == 0 {
		writeMessage(w, http.StatusNotFound, "No vehicle found")
		return
	}
	out := make([]vehicleResponse, 0, len(partial))
	for _, v := range partial {
		out = append(out, toVehicleResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	v, err := s.dir.vehicle(id)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

const createVehicleRoute = "POST /vehicles"

// CreateVehicle honors Idempotency-Key: a repeated request with the same key and body
// replays the first response, and the same key with a different body is a conflict.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var req vehicleRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var respFP idempotency.Fingerprint
	if key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)); key != "" && s.idem != nil {
		claims, _ := AccountFromContext(ctx)
		bodyHash := idempotency.HashBody(raw)

		metaFP := idempotency.Fingerprint{Key: idempotency.Key(key), Subject: claims.Subject, Route: createVehicleRoute}
		meta, ok, err := s.idem.Get(ctx, metaFP)
		switch {
		case err != nil:
			s.log.ErrorContext(ctx, "idempotency lookup", "err", err)
			writeMessage(w, http.StatusInternalServerError, "Server error")
			return
		case ok && string(meta.Body) != bodyHash:
			writeMessage(w, http.StatusConflict, "Idempotency key reused with a different request")
			return
		case !ok:
			rec := idempotency.Record{ContentType: "text/plain", Body: []byte(bodyHash), CreatedAt: s.clk.Now()}
			if err := s.idem.Put(ctx, metaFP, rec); err != nil {
				s.log.WarnContext(ctx, "idempotency store", "err", err, "request_id", middleware.GetReqID(ctx))
			}
		}

		respFP = metaFP
		respFP.BodyHash = bodyHash
		rec, ok, err := s.idem.Get(ctx, respFP)
		if err != nil {
			s.log.WarnContext(ctx, "idempotency replay lookup", "err", err, "request_id", middleware.GetReqID(ctx))
		}
		if err == nil && ok && rec.StatusCode == http.StatusCreated {
			w.Header().Set("Content-Type", rec.ContentType)
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	var v vehicleRecord
	req.applyTo(&v)
	if err := requireVehicleFields(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Please fill in all required fields")
		return
	}
	if v.ValidTill == "" {
		v.ValidTill = s.clk.Now().UTC().Format("2006-01-02")
	}

	created, err := s.dir.createVehicle(v, s.clk.Now())
	if errors.Is(err, errDuplicate) {
		writeMessage(w, http.StatusConflict, "Vehicle or pass number already registered")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	resp := toVehicleResponse(created)
	if respFP.Key != "" {
		if b, err := json.Marshal(resp); err == nil {
			err = s.idem.Put(ctx, respFP, idempotency.Record{
				StatusCode:  http.StatusCreated,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   s.clk.Now(),
			})
			if err != nil {
				s.log.WarnContext(ctx, "idempotency store", "err", err, "request_id", middleware.GetReqID(ctx))
			}
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req vehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := s.dir.updateVehicle(id, func(v *vehicleRecord) error {
		req.applyTo(v)
		return requireVehicleFields(*v)
	}, s.clk.Now())
	switch {
	case errors.Is(err, errNotFound):
		writeMessage(w, http.StatusNotFound, "Vehicle not found")
	case errors.Is(err, errMissingFields):
		writeMessage(w, http.StatusBadRequest, "Please fill in all required fields")
	case errors.Is(err, errDuplicate):
		writeMessage(w, http.StatusConflict, "Vehicle or pass number already registered")
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "Server error")
	default:
		writeJSON(w, http.StatusOK, toVehicleResponse(updated))
	}
}

func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.dir.deleteVehicle(id); err != nil {
		writeMessage(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	writeMessage(w, http.StatusOK, "Vehicle deleted")
}
