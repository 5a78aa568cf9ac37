package domain

// Role is the role a user holds in the registry.
//
// Values outside the known set are preserved as-is (they may come from corrupted
// storage); consumers must treat them as holding no capabilities.
type Role string

const (
	RoleGuard      Role = "guard"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Known reports whether r is one of the roles the registry issues.
func (r Role) Known() bool {
	switch r {
	case RoleGuard, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Profile is the user profile returned by a successful login.
type Profile struct {
	ID     ProfileID
	Name   string
	Mobile string
	Email  string
}

// Session is the authenticated state of the device.
//
// A session is either fully present (token and role) or absent. The zero value
// is the absent session.
type Session struct {
	Token     string
	Role      Role
	ProfileID ProfileID
	Profile   Profile
}

// Authenticated reports whether both the token and the role are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Role != ""
}

// Partial reports whether exactly one of token and role is present.
func (s Session) Partial() bool {
	return (s.Token == "") != (s.Role == "")
}
