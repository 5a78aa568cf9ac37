// Package device assembles the client core for one device: the durable credential
// store, the registry client, the session context and the services built on them.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	badgerkv "github.com/gatepass-registry/gatepass/internal/adapters/badger/kv"
	memkv "github.com/gatepass-registry/gatepass/internal/adapters/memory/kv"
	postgres "github.com/gatepass-registry/gatepass/internal/adapters/postgres"
	pgkv "github.com/gatepass-registry/gatepass/internal/adapters/postgres/kv"
	rediskv "github.com/gatepass-registry/gatepass/internal/adapters/redis/kv"
	"github.com/gatepass-registry/gatepass/internal/adapters/registryhttp"
	"github.com/gatepass-registry/gatepass/internal/app/auth"
	"github.com/gatepass-registry/gatepass/internal/app/credentials"
	"github.com/gatepass-registry/gatepass/internal/app/resolver"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/app/staff"
	"github.com/gatepass-registry/gatepass/internal/app/vehicles"
	platformclock "github.com/gatepass-registry/gatepass/internal/platform/clock"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

type Options struct {
	Config config.Config

	// KV replaces the store selected by Config.Store. The caller keeps ownership.
	KV         kv.Store
	HTTPClient *http.Client
	Clock      clockport.Clock
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

type Device struct {
	Session      *session.Context
	Mutator      *session.Mutator
	Bootstrapper *session.Bootstrapper
	Credentials  *credentials.Store
	Registry     *registryhttp.Client

	Auth     *auth.Service
	Resolver *resolver.Resolver
	Vehicles *vehicles.Service
	Staff    *staff.Service

	closers []func() error
}

func Open(ctx context.Context, opts Options) (*Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = platformclock.NewSystemClock()
	}

	d := &Device{}
	store := opts.KV
	if store == nil {
		s, closeStore, err := OpenStore(ctx, opts.Config.Store, logger)
		if err != nil {
			return nil, err
		}
		store = s
		d.closers = append(d.closers, closeStore)
	}

	d.Session = session.NewContext()
	d.Credentials = credentials.NewStore(store, clk, logger)
	d.Mutator = session.NewMutator(d.Credentials, d.Session, logger)
	d.Bootstrapper = session.NewBootstrapper(d.Credentials, d.Session, session.BootstrapOptions{
		Timeout: opts.Config.BootstrapTimeout,
		Logger:  logger,
	})

	client, err := registryhttp.New(registryhttp.Options{
		BaseURL:        opts.Config.APIBaseURL,
		Timeout:        opts.Config.HTTPTimeout,
		HTTPClient:     opts.HTTPClient,
		Logger:         logger,
		OnUnauthorized: d.Mutator.Expire,
	})
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Registry = client

	d.Auth = auth.NewService(client, d.Mutator, logger)
	d.Resolver = resolver.New(client, resolver.Options{Tracer: opts.Tracer, Logger: logger})
	d.Vehicles = vehicles.NewService(client, d.Resolver, d.Session, clk)
	d.Staff = staff.NewService(client, d.Auth, d.Session)
	return d, nil
}

// Start runs the launch-time session bootstrap.
func (d *Device) Start(ctx context.Context) session.State {
	return d.Bootstrapper.Run(ctx)
}

func (d *Device) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the kv.Store selected by cfg. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (kv.Store, func() error, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return memkv.NewStore(), func() error { return nil }, nil
	case config.StoreBadger, "":
		s, err := badgerkv.Open(badgerkv.Options{Dir: cfg.Dir, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreRedis:
		s, err := rediskv.NewStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s.Namespaced(cfg.Namespace), s.Close, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL, postgres.PoolOptions{MaxConns: 2})
		if err != nil {
			return nil, nil, err
		}
		if err := pgkv.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgkv.NewStore(pool, cfg.Namespace), func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
