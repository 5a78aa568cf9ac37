package domain

// Vehicle is a registered vehicle pass record.
type Vehicle struct {
	ID VehicleID

	// VehicleNumber is the plate number. Older records carry it in RegistrationNumber instead.
	VehicleNumber      string
	RegistrationNumber string

	PassNumber       string
	FlatNumber       string
	FlatOwnerName    string
	OwnerName        string
	OwnerContact     string
	AlternateContact string
	Email            string
	DLOrRCNumber     string
	PermanentAddress string
	VehicleType      string

	// ValidTill is the pass expiry date as YYYY-MM-DD.
	ValidTill string
}

// Plate returns the displayable plate number, falling back to the legacy field.
func (v Vehicle) Plate() string {
	if v.VehicleNumber != "" {
		return v.VehicleNumber
	}
	return v.RegistrationNumber
}

// StaffMember is an admin account managed by the super-admin.
type StaffMember struct {
	ID       StaffID
	Username string
	Name     string
	Email    string
	Mobile   string
	Role     Role
}

// DisplayName returns the username, or the full name for accounts created without one.
func (s StaffMember) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.Name
}
