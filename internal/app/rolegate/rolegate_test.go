package rolegate

import (
	"testing"

	"github.com/gatepass-registry/gatepass/internal/domain"
)

func TestFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role domain.Role
		want Capabilities
	}{
		{domain.RoleGuard, Capabilities{}},
		{domain.RoleAdmin, Capabilities{CanManageVehicles: true}},
		{domain.RoleSuperAdmin, Capabilities{CanManageVehicles: true, CanManageAdmins: true}},
		{"", Capabilities{}},
		{"Admin", Capabilities{}},
		{"root", Capabilities{}},
		{"superadmin ", Capabilities{}},
	}
	for _, tc := range cases {
		if got := For(tc.role); got != tc.want {
			t.Fatalf("For(%q)=%+v, want %+v", tc.role, got, tc.want)
		}
		// Deterministic.
		if again := For(tc.role); again != tc.want {
			t.Fatalf("For(%q) not deterministic", tc.role)
		}
	}
}

func TestCan(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role   domain.Role
		action Action
		want   bool
	}{
		{domain.RoleGuard, ActionSearchVehicles, true},
		{domain.RoleGuard, ActionViewVehicles, true},
		{domain.RoleGuard, ActionManageVehicles, false},
		{domain.RoleGuard, ActionManageAdmins, false},
		{domain.RoleAdmin, ActionManageVehicles, true},
		{domain.RoleAdmin, ActionManageAdmins, false},
		{domain.RoleSuperAdmin, ActionManageAdmins, true},
		{"corrupted", ActionSearchVehicles, false},
		{"corrupted", ActionManageVehicles, false},
		{domain.RoleSuperAdmin, Action("unknown"), false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.want {
			t.Fatalf("Can(%q, %q)=%v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}
