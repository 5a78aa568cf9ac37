package rolegate

import "github.com/gatepass-registry/gatepass/internal/domain"

// Capabilities decide which navigation destinations a session may see.
// The zero value grants nothing.
type Capabilities struct {
	CanManageVehicles bool
	CanManageAdmins   bool
}

type Action string

const (
	ActionSearchVehicles Action = "vehicles.search"
	ActionViewVehicles   Action = "vehicles.view"
	ActionManageVehicles Action = "vehicles.manage"
	ActionManageAdmins   Action = "admins.manage"
)

// For maps a role to its capabilities. It is total: unknown roles get none.
func For(role domain.Role) Capabilities {
	switch role {
	case domain.RoleSuperAdmin:
		return Capabilities{CanManageVehicles: true, CanManageAdmins: true}
	case domain.RoleAdmin:
		return Capabilities{CanManageVehicles: true}
	case domain.RoleGuard:
		return Capabilities{}
	default:
		return Capabilities{}
	}
}

// Can reports whether role may perform action.
func Can(role domain.Role, action Action) bool {
	caps := For(role)
	switch action {
	case ActionSearchVehicles, ActionViewVehicles:
		return role.Known()
	case ActionManageVehicles:
		return caps.CanManageVehicles
	case ActionManageAdmins:
		return caps.CanManageAdmins
	default:
		return false
	}
}
