package vehicles

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	memclock "github.com/gatepass-registry/gatepass/internal/adapters/memory/clock"
	"github.com/gatepass-registry/gatepass/internal/app/resolver"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/platform/seqgate"
	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

// fakeRegistry is an in-memory record set behind the vehicle endpoints. Search
// matches vehicle or pass numbers exactly.
type fakeRegistry struct {
	mu      sync.Mutex
	records map[domain.VehicleID]domain.Vehicle
	updates []domain.Vehicle
	err     error
}

func newFakeRegistry(vs ...domain.Vehicle) *fakeRegistry {
	f := &fakeRegistry{records: map[domain.VehicleID]domain.Vehicle{}}
	for _, v := range vs {
		f.records[v.ID] = v
	}
	return f
}

func (f *fakeRegistry) SearchVehicles(_ context.Context, _ string, q string) (registry.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := registry.Matches{}
	for _, v := range f.records {
		if v.VehicleNumber == q || v.PassNumber == q {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRegistry) GetVehicle(_ context.Context, _ string, id domain.VehicleID) (domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Vehicle{}, f.err
	}
	v, ok := f.records[id]
	if !ok {
		return domain.Vehicle{}, &registry.StatusError{Status: http.StatusNotFound, Message: "Vehicle not found"}
	}
	return v, nil
}

func (f *fakeRegistry) ListVehicles(context.Context, string) ([]domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Vehicle, 0, len(f.records))
	for _, v := range f.records {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRegistry) CreateVehicle(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Vehicle{}, f.err
	}
	v.ID = domain.VehicleID("new-" + v.PassNumber)
	f.records[v.ID] = v
	return v, nil
}

func (f *fakeRegistry) UpdateVehicle(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Vehicle{}, f.err
	}
	f.updates = append(f.updates, v)
	f.records[v.ID] = v
	return v, nil
}

func (f *fakeRegistry) DeleteVehicle(_ context.Context, _ string, id domain.VehicleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.records[id]; !ok {
		return &registry.StatusError{Status: http.StatusNotFound, Message: "Vehicle not found"}
	}
	delete(f.records, id)
	return nil
}

type fixedSessions struct {
	s     domain.Session
	stale bool
}

func (f fixedSessions) Snapshot() session.Snapshot {
	return session.Snapshot{Epoch: 1, Session: f.s}
}

func (f fixedSessions) Valid(epoch uint64) bool { return !f.stale && epoch == 1 }

func newService(reg *fakeRegistry, role domain.Role) *Service {
	sess := domain.Session{}
	if role != "" {
		sess = domain.Session{Token: "tok", Role: role}
	}
	clk := memclock.NewManualClock(time.Date(2026, 10, 19, 22, 30, 0, 0, time.UTC))
	return NewService(reg, resolver.New(reg, resolver.Options{}), fixedSessions{s: sess}, clk)
}

func requireCode(t *testing.T, err error, code string) *Error {
	t.Helper()
	var ve *Error
	if !errors.As(err, &ve) || ve.Code != code {
		t.Fatalf("err = %v, want code %s", err, code)
	}
	return ve
}

func validInput() CreateInput {
	return CreateInput{
		VehicleNumber: "DL8CAB1234",
		PassNumber:    "PASS-001",
		FlatNumber:    "B-404",
		OwnerName:     "Asha Rao",
		OwnerContact:  "9876543210",
	}
}

func TestCreate_DefaultsValidTillToToday(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	v, err := newService(reg, domain.RoleAdmin).Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.ValidTill != "2026-10-19" || v.ID == "" {
		t.Fatalf("v = %+v", v)
	}
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mod   func(*CreateInput)
		field string
	}{
		{name: "vehicle number", mod: func(in *CreateInput) { in.VehicleNumber = " " }, field: "vehicleNumber"},
		{name: "pass number", mod: func(in *CreateInput) { in.PassNumber = "" }, field: "passNumber"},
		{name: "flat", mod: func(in *CreateInput) { in.FlatNumber = "" }, field: "flatNumber"},
		{name: "owner", mod: func(in *CreateInput) { in.OwnerName = "" }, field: "ownerName"},
		{name: "contact", mod: func(in *CreateInput) { in.OwnerContact = "" }, field: "ownerContact"},
		{name: "email", mod: func(in *CreateInput) { in.Email = "asha@" }, field: "email"},
		{name: "date", mod: func(in *CreateInput) { in.ValidTill = "19/10/2026" }, field: "validTill"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg := newFakeRegistry()
			in := validInput()
			tt.mod(&in)
			_, err := newService(reg, domain.RoleAdmin).Create(context.Background(), in)
			ve := requireCode(t, err, CodeValidationFailed)
			if _, ok := ve.Details[tt.field]; !ok {
				t.Fatalf("details = %v, want %s", ve.Details, tt.field)
			}
			if len(reg.records) != 0 {
				t.Fatalf("record created despite validation failure")
			}
		})
	}
}

func TestCapabilityChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	existing := domain.Vehicle{ID: "v1", VehicleNumber: "DL8CAB1234", PassNumber: "PASS-001", FlatNumber: "B-404", OwnerName: "Asha", OwnerContact: "9"}

	for _, role := range []domain.Role{"", domain.RoleGuard, "janitor"} {
		svc := newService(newFakeRegistry(existing), role)
		requireCode(t, func() error { _, err := svc.Create(ctx, validInput()); return err }(), CodeForbidden)
		requireCode(t, func() error {
			_, err := svc.OpenUpdateScreen().Update(ctx, "DL8CAB1234", Patch{OwnerName: Some("X")})
			return err
		}(), CodeForbidden)
		requireCode(t, svc.Delete(ctx, "v1"), CodeForbidden)
	}

	guard := newService(newFakeRegistry(existing), domain.RoleGuard)
	if vs, err := guard.List(ctx); err != nil || len(vs) != 1 {
		t.Fatalf("guard List = %v, %v", vs, err)
	}
	if _, err := guard.Get(ctx, "v1"); err != nil {
		t.Fatalf("guard Get: %v", err)
	}
	requireCode(t, func() error { _, err := newService(newFakeRegistry(), "").List(ctx); return err }(), CodeForbidden)
}

func TestUpdate_ResolvesTargetThroughSearch(t *testing.T) {
	t.Parallel()

	existing := domain.Vehicle{ID: "v1", VehicleNumber: "DL8CAB1234", PassNumber: "PASS-001", FlatNumber: "B-404", OwnerName: "Asha", OwnerContact: "9", Email: "old@example.com"}
	reg := newFakeRegistry(existing)
	svc := newService(reg, domain.RoleSuperAdmin)

	got, err := svc.OpenUpdateScreen().Update(context.Background(), "PASS-001", Patch{
		FlatNumber: Some("C-101"),
		Email:      Some(""),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != "v1" || got.FlatNumber != "C-101" || got.Email != "" || got.OwnerName != "Asha" {
		t.Fatalf("got = %+v", got)
	}
}

func TestUpdate_ByRecordID(t *testing.T) {
	t.Parallel()

	const id = "507f1f77bcf86cd799439011"
	existing := domain.Vehicle{ID: id, RegistrationNumber: "OLD1234", PassNumber: "PASS-9", FlatNumber: "A-1", OwnerName: "Ravi", OwnerContact: "9"}
	reg := newFakeRegistry(existing)
	svc := newService(reg, domain.RoleAdmin)

	got, err := svc.OpenUpdateScreen().Update(context.Background(), id, Patch{OwnerContact: Some("9000000000")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.VehicleNumber != "OLD1234" || got.OwnerContact != "9000000000" {
		t.Fatalf("got = %+v", got)
	}
}

func TestUpdate_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	existing := domain.Vehicle{ID: "v1", VehicleNumber: "DL8CAB1234", PassNumber: "PASS-001", FlatNumber: "B-404", OwnerName: "Asha", OwnerContact: "9"}

	scr := newService(newFakeRegistry(existing), domain.RoleAdmin).OpenUpdateScreen()
	defer scr.Close()
	requireCode(t, func() error { _, err := scr.Update(ctx, "DL8CAB1234", Patch{}); return err }(), CodeValidationFailed)
	requireCode(t, func() error { _, err := scr.Update(ctx, "NOPE", Patch{OwnerName: Some("X")}); return err }(), CodeNotFound)
	requireCode(t, func() error { _, err := scr.Update(ctx, "DL8CAB1234", Patch{OwnerName: Some(" ")}); return err }(), CodeValidationFailed)

	reg := newFakeRegistry(existing)
	reg.err = registry.ErrUnauthorized
	requireCode(t, func() error {
		_, err := newService(reg, domain.RoleAdmin).OpenUpdateScreen().Update(ctx, "DL8CAB1234", Patch{OwnerName: Some("X")})
		return err
	}(), CodeUnauthorized)

	reg = newFakeRegistry(existing)
	reg.err = &registry.TransportError{Op: "search", Err: context.DeadlineExceeded}
	requireCode(t, func() error {
		_, err := newService(reg, domain.RoleAdmin).OpenUpdateScreen().Find(ctx, "DL8CAB1234")
		return err
	}(), CodeTransport)
}

func TestUpdateScreen_StaleLookupSavesNothing(t *testing.T) {
	t.Parallel()

	existing := domain.Vehicle{ID: "v1", VehicleNumber: "DL8CAB1234", PassNumber: "PASS-001", FlatNumber: "B-404", OwnerName: "Asha", OwnerContact: "9"}

	t.Run("closed screen", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(existing)
		scr := newService(reg, domain.RoleAdmin).OpenUpdateScreen()
		scr.Close()

		_, err := scr.Update(context.Background(), "DL8CAB1234", Patch{OwnerName: Some("X")})
		if !errors.Is(err, seqgate.ErrClosed) {
			t.Fatalf("err = %v, want ErrClosed", err)
		}
		if len(reg.updates) != 0 {
			t.Fatalf("updates = %+v, want none", reg.updates)
		}
	})

	t.Run("session replaced during lookup", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(existing)
		clk := memclock.NewManualClock(time.Date(2026, 10, 19, 22, 30, 0, 0, time.UTC))
		sessions := fixedSessions{s: domain.Session{Token: "tok", Role: domain.RoleAdmin}, stale: true}
		svc := NewService(reg, resolver.New(reg, resolver.Options{}), sessions, clk)

		_, err := svc.OpenUpdateScreen().Update(context.Background(), "DL8CAB1234", Patch{OwnerName: Some("X")})
		if !errors.Is(err, seqgate.ErrSuperseded) {
			t.Fatalf("err = %v, want ErrSuperseded", err)
		}
		if len(reg.updates) != 0 {
			t.Fatalf("updates = %+v, want none", reg.updates)
		}
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := newFakeRegistry(domain.Vehicle{ID: "v1"})
	svc := newService(reg, domain.RoleAdmin)

	if err := svc.Delete(ctx, "v1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ve := requireCode(t, svc.Delete(ctx, "v1"), CodeNotFound)
	if ve.Message != "Vehicle not found" {
		t.Fatalf("message = %q", ve.Message)
	}
	requireCode(t, svc.Delete(ctx, ""), CodeValidationFailed)
}
