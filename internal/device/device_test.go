package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	memkv "github.com/gatepass-registry/gatepass/internal/adapters/memory/kv"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: config.StoreMemory}, false},
		{"badger", config.StoreConfig{Backend: config.StoreBadger, Dir: t.TempDir()}, false},
		{"badger without dir", config.StoreConfig{Backend: config.StoreBadger}, true},
		{"redis bad url", config.StoreConfig{Backend: config.StoreRedis, RedisURL: "not-a-url"}, true},
		{"postgres without dsn", config.StoreConfig{Backend: config.StorePostgres}, true},
		{"unknown", config.StoreConfig{Backend: "floppy"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, closeStore, err := OpenStore(ctx, tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer func() { _ = closeStore() }()
			if err := store.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("Set: %v", err)
			}
		})
	}
}

func TestOpen_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.APIBaseURL = "ftp://example.com"
	if _, err := Open(context.Background(), Options{Config: cfg, KV: memkv.NewStore()}); err == nil {
		t.Fatalf("expected error for non-http base url")
	}
}

func TestOpen_RejectedTokenExpiresSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token is not valid"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL + "/api"
	d, err := Open(ctx, Options{Config: cfg, KV: memkv.NewStore(), HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if st := d.Start(ctx); st.Status != session.StatusUnauthenticated {
		t.Fatalf("fresh device: %v", st.Status)
	}
	if err := d.Mutator.Establish(ctx, domain.Session{Token: "stale", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	if _, err := d.Vehicles.List(ctx); err == nil {
		t.Fatalf("expected error from rejected token")
	}
	if d.Session.Snapshot().Session.Authenticated() {
		t.Fatalf("session should be dropped after the backend rejects the token")
	}
	stored, err := d.Credentials.Get(ctx)
	if err != nil || stored.Authenticated() {
		t.Fatalf("stored session should be cleared: %+v err=%v", stored, err)
	}
}

func TestOpen_LateRejectionOfReplacedTokenKeepsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token is not valid"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL + "/api"
	d, err := Open(ctx, Options{Config: cfg, KV: memkv.NewStore(), HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	d.Start(ctx)

	if err := d.Mutator.Establish(ctx, domain.Session{Token: "fresh", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	// A request issued under the previous session answers after the switch.
	if _, err := d.Registry.SearchVehicles(ctx, "stale", "KA01"); err == nil {
		t.Fatalf("expected rejection of the stale token")
	}

	if got := d.Session.Token(); got != "fresh" {
		t.Fatalf("context token = %q, want fresh", got)
	}
	stored, err := d.Credentials.Get(ctx)
	if err != nil || stored.Token != "fresh" {
		t.Fatalf("stored session = %+v err=%v", stored, err)
	}
}
