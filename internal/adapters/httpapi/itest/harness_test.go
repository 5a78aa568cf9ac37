package itest

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"golang.org/x/crypto/bcrypt"

	badgerkv "github.com/gatepass-registry/gatepass/internal/adapters/badger/kv"
	"github.com/gatepass-registry/gatepass/internal/adapters/httpapi"
	memclock "github.com/gatepass-registry/gatepass/internal/adapters/memory/clock"
	memidempotency "github.com/gatepass-registry/gatepass/internal/adapters/memory/idempotency"
	memkv "github.com/gatepass-registry/gatepass/internal/adapters/memory/kv"
	pgkv "github.com/gatepass-registry/gatepass/internal/adapters/postgres/kv"
	postgres_testutil "github.com/gatepass-registry/gatepass/internal/adapters/postgres/testutil"
	rediskv "github.com/gatepass-registry/gatepass/internal/adapters/redis/kv"
	"github.com/gatepass-registry/gatepass/internal/device"
	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

const (
	superMobile   = "1234567890"
	superPassword = "admin123"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendBadger   backend = "badger"
	backendRedis    backend = "redis"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "badger":
		return []backend{backendBadger}
	case "redis":
		return []backend{backendRedis}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendBadger, backendRedis, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|badger|redis|postgres|all)")
		return nil
	}
}

// openKV returns the device-local store for b. Stores survive a simulated relaunch
// because the same kv.Store is handed to every device built in one test.
func openKV(t *testing.T, b backend) kv.Store {
	t.Helper()

	switch b {
	case backendMemory:
		return memkv.NewStore()
	case backendBadger:
		s, err := badgerkv.Open(badgerkv.Options{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("badger open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	case backendRedis:
		mr := miniredis.RunT(t)
		s, err := rediskv.NewStore(context.Background(), "redis://"+mr.Addr())
		if err != nil {
			t.Fatalf("redis store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s.Namespaced(strings.ReplaceAll(t.Name(), "/", "_"))
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		ns := "itest-" + strings.ReplaceAll(t.Name(), "/", "_")
		s := pgkv.NewStore(pool, ns)
		t.Cleanup(func() {
			_ = s.Delete(context.Background(), "userToken")
			_ = s.Delete(context.Background(), "userInfo")
		})
		return s
	default:
		t.Fatalf("unknown backend: %s", b)
		return nil
	}
}

type registry struct {
	srv *httptest.Server
	clk *memclock.ManualClock
}

func newRegistry(t *testing.T) *registry {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	tokens := sessiontoken.New(config.DevServerConfig{
		TokenSecret: "itest-secret-0123456789abcdef",
		TokenIssuer: "itest-issuer",
		TokenTTL:    time.Hour,
	}, clk)

	dir := httpapi.NewDirectory(httpapi.WithHashCost(bcrypt.MinCost))
	api := httpapi.NewServer(dir, memidempotency.NewStore(clk, memidempotency.DefaultRetention), tokens, clk, nil)
	if err := api.SeedSuperAdmin(context.Background(), superMobile, superPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := httptest.NewServer(httpapi.NewRouter(api))
	t.Cleanup(srv.Close)
	return &registry{srv: srv, clk: clk}
}

// launch builds a device over store and runs the launch-time bootstrap.
func (r *registry) launch(t *testing.T, store kv.Store) *device.Device {
	t.Helper()

	cfg := config.Default()
	cfg.APIBaseURL = r.srv.URL + "/api"
	cfg.BootstrapTimeout = time.Second
	d, err := device.Open(context.Background(), device.Options{
		Config:     cfg,
		KV:         store,
		HTTPClient: r.srv.Client(),
		Clock:      r.clk,
	})
	if err != nil {
		t.Fatalf("device.Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	d.Start(context.Background())
	return d
}
