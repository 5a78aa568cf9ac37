package registryhttp

import (
	"strings"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/gatepass-registry/gatepass/internal/domain"
)

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	Token  string                    `json:"token"`
	Role   string                    `json:"role"`
	ID     string                    `json:"_id"`
	Name   nullable.Nullable[string] `json:"name,omitempty"`
	Mobile nullable.Nullable[string] `json:"mobile,omitempty"`
	Email  nullable.Nullable[string] `json:"email,omitempty"`
}

type registerRequest struct {
	Name     string               `json:"name"`
	Mobile   string               `json:"mobile"`
	Email    *openapi_types.Email `json:"email,omitempty"`
	Password string               `json:"password"`
	Role     string               `json:"role,omitempty"`
}

type staffRequest struct {
	Username string              `json:"username"`
	Email    openapi_types.Email `json:"email"`
	Mobile   string              `json:"mobile,omitempty"`
	Password string              `json:"password"`
	Role     string              `json:"role"`
}

type messageBody struct {
	Message string `json:"message"`
}

// recordShape tells a record object apart from an error payload.
type recordShape struct {
	ID      string `json:"_id"`
	Message string `json:"message"`
}

type vehicleDTO struct {
	ID                 string                    `json:"_id,omitempty"`
	VehicleNumber      string                    `json:"vehicleNumber"`
	RegistrationNumber nullable.Nullable[string] `json:"registrationNumber,omitempty"`
	PassNumber         string                    `json:"passNumber"`
	FlatNumber         string                    `json:"flatNumber"`
	FlatOwnerName      nullable.Nullable[string] `json:"flatOwnerName,omitempty"`
	OwnerName          string                    `json:"ownerName"`
	OwnerContact       string                    `json:"ownerContact"`
	AlternateContact   nullable.Nullable[string] `json:"alternateContact,omitempty"`
	Email              nullable.Nullable[string] `json:"email,omitempty"`
	DLOrRCNumber       nullable.Nullable[string] `json:"dlOrRcNumber,omitempty"`
	PermanentAddress   nullable.Nullable[string] `json:"permanentAddress,omitempty"`
	VehicleType        nullable.Nullable[string] `json:"vehicleType,omitempty"`
	ValidTill          nullable.Nullable[string] `json:"validTill,omitempty"`
}

type staffDTO struct {
	ID       string                    `json:"_id"`
	Username nullable.Nullable[string] `json:"username,omitempty"`
	Name     nullable.Nullable[string] `json:"name,omitempty"`
	Email    nullable.Nullable[string] `json:"email,omitempty"`
	Mobile   nullable.Nullable[string] `json:"mobile,omitempty"`
	Role     string                    `json:"role"`
}

func valueOf(n nullable.Nullable[string]) string {
	if !n.IsSpecified() || n.IsNull() {
		return ""
	}
	v, err := n.Get()
	if err != nil {
		return ""
	}
	return v
}

// optional leaves empty values unspecified on create. On update an empty value is
// sent as null so the field is cleared.
func optional(s string, clear bool) nullable.Nullable[string] {
	if s != "" {
		return nullable.NewNullableWithValue(s)
	}
	if clear {
		return nullable.NewNullNullable[string]()
	}
	return nil
}

func (d vehicleDTO) toDomain() domain.Vehicle {
	return domain.Vehicle{
		ID:                 domain.VehicleID(d.ID),
		VehicleNumber:      d.VehicleNumber,
		RegistrationNumber: valueOf(d.RegistrationNumber),
		PassNumber:         d.PassNumber,
		FlatNumber:         d.FlatNumber,
		FlatOwnerName:      valueOf(d.FlatOwnerName),
		OwnerName:          d.OwnerName,
		OwnerContact:       d.OwnerContact,
		AlternateContact:   valueOf(d.AlternateContact),
		Email:              valueOf(d.Email),
		DLOrRCNumber:       valueOf(d.DLOrRCNumber),
		PermanentAddress:   valueOf(d.PermanentAddress),
		VehicleType:        valueOf(d.VehicleType),
		ValidTill:          dateOnly(valueOf(d.ValidTill)),
	}
}

func vehicleToDTO(v domain.Vehicle, clear bool) vehicleDTO {
	return vehicleDTO{
		VehicleNumber:      v.VehicleNumber,
		RegistrationNumber: optional(v.RegistrationNumber, clear),
		PassNumber:         v.PassNumber,
		FlatNumber:         v.FlatNumber,
		FlatOwnerName:      optional(v.FlatOwnerName, clear),
		OwnerName:          v.OwnerName,
		OwnerContact:       v.OwnerContact,
		AlternateContact:   optional(v.AlternateContact, clear),
		Email:              optional(v.Email, clear),
		DLOrRCNumber:       optional(v.DLOrRCNumber, clear),
		PermanentAddress:   optional(v.PermanentAddress, clear),
		VehicleType:        optional(v.VehicleType, clear),
		ValidTill:          optional(v.ValidTill, clear),
	}
}

func (d staffDTO) toDomain() domain.StaffMember {
	return domain.StaffMember{
		ID:       domain.StaffID(d.ID),
		Username: valueOf(d.Username),
		Name:     valueOf(d.Name),
		Email:    valueOf(d.Email),
		Mobile:   valueOf(d.Mobile),
		Role:     domain.Role(d.Role),
	}
}

// dateOnly trims a timestamp such as 2026-04-30T00:00:00.000Z to its date.
func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}
