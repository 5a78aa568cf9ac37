// Package resolver locates a single vehicle record from a user-supplied query.
//
// Resolution order:
//  1. A blank query resolves to NotFound without contacting the backend.
//  2. The search endpoint: the first element of a non-empty list, or a single record
//     object that carries a record identifier.
//  3. If search produced nothing usable and the query has the record identifier
//     shape, a direct lookup by identifier. A backend failure there is NotFound.
//  4. Otherwise NotFound.
//
// Transport failures and rejected credentials are errors, never NotFound.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

const tracerName = "github.com/gatepass-registry/gatepass/internal/app/resolver"

// Backend is the part of registry.Backend the resolver reads from.
type Backend interface {
	SearchVehicles(ctx context.Context, token string, query string) (registry.SearchResult, error)
	GetVehicle(ctx context.Context, token string, id domain.VehicleID) (domain.Vehicle, error)
}

type Strategy string

const (
	StrategyNone     Strategy = "none"
	StrategySearch   Strategy = "search"
	StrategyDirectID Strategy = "direct-id"
)

// Outcome is either Found (with the record and the strategy that found it) or
// NotFound. NotFound is an expected result, not an error.
type Outcome struct {
	Vehicle  domain.Vehicle
	Found    bool
	Strategy Strategy
}

func Found(v domain.Vehicle, s Strategy) Outcome {
	return Outcome{Vehicle: v, Found: true, Strategy: s}
}

var NotFound = Outcome{Strategy: StrategyNone}

type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindUnauthorized ErrorKind = "unauthorized"
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("resolver: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Options struct {
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
	Logger *slog.Logger
}

type Resolver struct {
	backend Backend
	tracer  trace.Tracer
	log     *slog.Logger
}

func New(backend Backend, opts Options) *Resolver {
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		backend: backend,
		tracer:  opts.Tracer,
		log:     opts.Logger.With("component", "resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, query, token string) (out Outcome, err error) {
	q := domain.NormalizeQuery(query)
	if q == "" {
		return NotFound, nil
	}

	ctx, span := r.tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.Int("query.length", len(q)),
		attribute.Bool("query.record_id_shape", domain.IsRecordID(q)),
	))
	defer func() {
		span.SetAttributes(
			attribute.Bool("resolve.found", out.Found),
			attribute.String("resolve.strategy", string(out.Strategy)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, err := r.backend.SearchVehicles(ctx, token, q)
	if err != nil {
		return NotFound, classify(err)
	}
	if v, ok := registry.First(res); ok {
		return Found(v, StrategySearch), nil
	}
	if f, ok := res.(registry.Failure); ok {
		r.log.DebugContext(ctx, "search reported failure", "status", f.Status, "message", f.Message)
	}

	if !domain.IsRecordID(q) {
		return NotFound, nil
	}

	v, err := r.backend.GetVehicle(ctx, token, domain.VehicleID(q))
	if err != nil {
		if errors.Is(err, registry.ErrUnauthorized) || registry.IsTransport(err) {
			return NotFound, classify(err)
		}
		r.log.DebugContext(ctx, "direct lookup failed", "err", err)
		return NotFound, nil
	}
	return Found(v, StrategyDirectID), nil
}

// SearchAll returns every search match for list display, best match first. A single
// record response becomes a one-element list; a failure response an empty one. It
// never performs the identifier lookup.
func (r *Resolver) SearchAll(ctx context.Context, query, token string) ([]domain.Vehicle, error) {
	q := domain.NormalizeQuery(query)
	if q == "" {
		return []domain.Vehicle{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "resolver.SearchAll")
	defer span.End()

	res, err := r.backend.SearchVehicles(ctx, token, q)
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out := registry.All(res)
	span.SetAttributes(attribute.Int("search.matches", len(out)))
	return out, nil
}

func classify(err error) error {
	if errors.Is(err, registry.ErrUnauthorized) {
		return &Error{Kind: KindUnauthorized, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}
