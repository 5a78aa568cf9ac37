package staff

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gatepass-registry/gatepass/internal/app/auth"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

type fakeBackend struct {
	members []domain.StaffMember
	deleted []domain.StaffID
	err     error
}

func (f *fakeBackend) ListStaff(context.Context, string) ([]domain.StaffMember, error) {
	return f.members, f.err
}

func (f *fakeBackend) DeleteStaff(_ context.Context, _ string, id domain.StaffID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRegistrar struct {
	token string
	got   []auth.StaffInput
}

func (f *fakeRegistrar) RegisterStaff(_ context.Context, token string, in auth.StaffInput) error {
	f.token = token
	f.got = append(f.got, in)
	return nil
}

type fixedSessions struct{ s domain.Session }

func (f fixedSessions) Snapshot() session.Snapshot { return session.Snapshot{Session: f.s} }

func superAdmin() domain.Session {
	return domain.Session{Token: "root-tok", Role: domain.RoleSuperAdmin, ProfileID: "root"}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) || se.Code != code {
		t.Fatalf("err = %v, want %s", err, code)
	}
}

func TestOnlySuperAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, s := range []domain.Session{{}, {Token: "t", Role: domain.RoleAdmin}, {Token: "t", Role: domain.RoleGuard}} {
		reg := &fakeRegistrar{}
		svc := NewService(&fakeBackend{}, reg, fixedSessions{s: s})

		_, err := svc.List(ctx)
		requireCode(t, err, CodeForbidden)
		requireCode(t, svc.Add(ctx, auth.StaffInput{Username: "x"}), CodeForbidden)
		requireCode(t, svc.Remove(ctx, "s1"), CodeForbidden)
		if len(reg.got) != 0 {
			t.Fatalf("registrar called for role %q", s.Role)
		}
	}
}

func TestSuperAdminManagesStaff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &fakeBackend{members: []domain.StaffMember{{ID: "s1", Username: "gate-admin", Role: domain.RoleAdmin}}}
	reg := &fakeRegistrar{}
	svc := NewService(backend, reg, fixedSessions{s: superAdmin()})

	members, err := svc.List(ctx)
	if err != nil || len(members) != 1 {
		t.Fatalf("List = %v, %v", members, err)
	}
	if err := svc.Add(ctx, auth.StaffInput{Username: "new", Email: "n@example.com", Password: "x"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if reg.token != "root-tok" {
		t.Fatalf("token = %q", reg.token)
	}
	if err := svc.Remove(ctx, " s1 "); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "s1" {
		t.Fatalf("deleted = %v", backend.deleted)
	}
}

func TestRemove_Guards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &fakeBackend{}
	svc := NewService(backend, &fakeRegistrar{}, fixedSessions{s: superAdmin()})

	requireCode(t, svc.Remove(ctx, ""), CodeValidationFailed)
	requireCode(t, svc.Remove(ctx, "root"), CodeValidationFailed)
	if len(backend.deleted) != 0 {
		t.Fatalf("deleted = %v", backend.deleted)
	}

	backend.err = &registry.StatusError{Status: http.StatusNotFound}
	requireCode(t, svc.Remove(ctx, "s9"), CodeNotFound)
	backend.err = registry.ErrUnauthorized
	requireCode(t, svc.Remove(ctx, "s9"), CodeUnauthorized)
}
