// Package registryhttp is the HTTP client for the vehicle pass registry API.
package registryhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/ports/out/registry"
)

const (
	DefaultTimeout = 15 * time.Second

	maxResponseBytes     = 1 << 20
	requestIDHeader      = "X-Request-Id"
	idempotencyKeyHeader = "Idempotency-Key"
)

type Options struct {
	BaseURL string
	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger

	// OnUnauthorized is called with the bearer token the backend rejected.
	OnUnauthorized func(ctx context.Context, token string)
}

// Client implements registry.Backend. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	log            *slog.Logger
	onUnauthorized func(ctx context.Context, token string)
	newRequestID   func() string
	pending        pendingCreates
}

var _ registry.Backend = (*Client)(nil)

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("registryhttp: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("registryhttp: base url %q must be http or https", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:           base,
		http:           httpClient,
		log:            logger.With("component", "registryhttp"),
		onUnauthorized: opts.OnUnauthorized,
		newRequestID:   uuid.NewString,
	}, nil
}

// SetOnUnauthorized replaces the unauthorized hook. Binaries wire it after the
// session mutator exists.
func (c *Client) SetOnUnauthorized(fn func(ctx context.Context, token string)) {
	c.onUnauthorized = fn
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

func (r response) message() string {
	var m messageBody
	if err := json.Unmarshal(r.body, &m); err != nil {
		return ""
	}
	return m.Message
}

func (r response) statusError() error {
	return &registry.StatusError{Status: r.status, Message: r.message()}
}

type requestOption func(*http.Request)

func withIdempotencyKey(key string) requestOption {
	return func(r *http.Request) { r.Header.Set(idempotencyKeyHeader, key) }
}

// do performs one exchange. Connection failures, timeouts and unreadable bodies are
// TransportErrors; any HTTP status is returned to the caller as a response.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, in any, opts ...requestOption) (response, error) {
	// path is already escaped.
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, &registry.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return response{}, &registry.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rid := c.newRequestID()
	req.Header.Set(requestIDHeader, rid)
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.DebugContext(ctx, "registry request failed", "op", op, "request_id", rid, "err", err)
		return response{}, &registry.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, &registry.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.log.DebugContext(ctx, "registry request",
		"op", op,
		"request_id", rid,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return response{status: resp.StatusCode, body: b}, nil
}

// authorized performs an exchange that carries the session token. A 401 is reported
// as registry.ErrUnauthorized after the unauthorized hook runs.
func (c *Client) authorized(ctx context.Context, op, method, path string, query url.Values, token string, in any, opts ...requestOption) (response, error) {
	resp, err := c.do(ctx, op, method, path, query, token, in, opts...)
	if err != nil {
		return response{}, err
	}
	if resp.status == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, token)
		}
		return response{}, registry.ErrUnauthorized
	}
	return resp, nil
}

func decodeJSON[T any](op string, resp response) (T, error) {
	var out T
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return out, &registry.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, cr registry.Credentials) (registry.LoginResult, error) {
	const op = "login"
	resp, err := c.do(ctx, op, http.MethodPost, "/auth/login", nil, "", loginRequest{
		Mobile:   cr.Identifier,
		Password: cr.Secret,
		Role:     string(cr.ClaimedRole),
	})
	if err != nil {
		return registry.LoginResult{}, err
	}
	if !resp.ok() {
		return registry.LoginResult{}, resp.statusError()
	}
	lr, err := decodeJSON[loginResponse](op, resp)
	if err != nil {
		return registry.LoginResult{}, err
	}
	return registry.LoginResult{
		Token: lr.Token,
		Role:  domain.Role(lr.Role),
		Profile: domain.Profile{
			ID:     domain.ProfileID(lr.ID),
			Name:   valueOf(lr.Name),
			Mobile: valueOf(lr.Mobile),
			Email:  valueOf(lr.Email),
		},
	}, nil
}

func (c *Client) Register(ctx context.Context, r registry.Registration) error {
	req := registerRequest{
		Name:     r.Name,
		Mobile:   r.Mobile,
		Password: r.Password,
		Role:     string(r.ClaimedRole),
	}
	if r.Email != "" {
		email := openapi_types.Email(r.Email)
		req.Email = &email
	}
	resp, err := c.do(ctx, "register", http.MethodPost, "/auth/register", nil, "", req)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.statusError()
	}
	return nil
}

func (c *Client) RegisterStaff(ctx context.Context, token string, r registry.StaffRegistration) error {
	resp, err := c.authorized(ctx, "register staff", http.MethodPost, "/auth/register", nil, token, staffRequest{
		Username: r.Username,
		Email:    openapi_types.Email(r.Email),
		Mobile:   r.Mobile,
		Password: r.Password,
		Role:     string(r.Role),
	})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.statusError()
	}
	return nil
}

func (c *Client) SearchVehicles(ctx context.Context, token string, query string) (registry.SearchResult, error) {
	const op = "search vehicles"
	resp, err := c.authorized(ctx, op, http.MethodGet, "/vehicles/search", url.Values{"query": {query}}, token, nil)
	if err != nil {
		return nil, err
	}
	return decodeSearchResult(op, resp.status, resp.body)
}

// decodeSearchResult maps a search response onto its variant. A JSON array is
// Matches; an object is a SingleMatch only when it carries a record identifier and
// a Failure otherwise; any non-success status is a Failure.
func decodeSearchResult(op string, status int, body []byte) (registry.SearchResult, error) {
	resp := response{status: status, body: body}
	if !resp.ok() {
		return registry.Failure{Status: status, Message: resp.message()}, nil
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return registry.Failure{Status: status}, nil
	}
	switch trimmed[0] {
	case '[':
		dtos, err := decodeJSON[[]vehicleDTO](op, resp)
		if err != nil {
			return nil, err
		}
		out := make(registry.Matches, 0, len(dtos))
		for _, d := range dtos {
			out = append(out, d.toDomain())
		}
		return out, nil
	case '{':
		shape, err := decodeJSON[recordShape](op, resp)
		if err != nil {
			return nil, err
		}
		if shape.ID == "" {
			return registry.Failure{Status: status, Message: shape.Message}, nil
		}
		d, err := decodeJSON[vehicleDTO](op, resp)
		if err != nil {
			return nil, err
		}
		return registry.SingleMatch{Vehicle: d.toDomain()}, nil
	default:
		return registry.Failure{Status: status}, nil
	}
}

func (c *Client) GetVehicle(ctx context.Context, token string, id domain.VehicleID) (domain.Vehicle, error) {
	const op = "get vehicle"
	resp, err := c.authorized(ctx, op, http.MethodGet, "/vehicles/"+url.PathEscape(string(id)), nil, token, nil)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if !resp.ok() {
		return domain.Vehicle{}, resp.statusError()
	}
	d, err := decodeJSON[vehicleDTO](op, resp)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if d.ID == "" {
		return domain.Vehicle{}, &registry.StatusError{Status: resp.status, Message: "response is not a vehicle record"}
	}
	return d.toDomain(), nil
}

func (c *Client) ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error) {
	const op = "list vehicles"
	resp, err := c.authorized(ctx, op, http.MethodGet, "/vehicles", nil, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.statusError()
	}
	dtos, err := decodeJSON[[]vehicleDTO](op, resp)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Vehicle, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// CreateVehicle sends an Idempotency-Key. It never retries; when the request fails in
// transit the key is kept, so a re-submit of the same record with the same token is
// replayed by the backend instead of creating a second record.
func (c *Client) CreateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error) {
	const op = "create vehicle"
	raw, err := json.Marshal(vehicleToDTO(v, false))
	if err != nil {
		return domain.Vehicle{}, &registry.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}
	fp := createFingerprint(token, raw)
	key := c.pending.keyFor(fp, c.newRequestID)

	resp, err := c.authorized(ctx, op, http.MethodPost, "/vehicles", nil, token, json.RawMessage(raw), withIdempotencyKey(key))
	if registry.IsTransport(err) {
		c.pending.keep(fp, key)
		c.log.DebugContext(ctx, "vehicle create left pending", "idempotency_key", key)
		return domain.Vehicle{}, err
	}
	c.pending.forget(fp)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if !resp.ok() {
		return domain.Vehicle{}, resp.statusError()
	}
	return echoedVehicle(resp, v), nil
}

func (c *Client) UpdateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error) {
	if v.ID == "" {
		return domain.Vehicle{}, errors.New("registryhttp: update requires a record id")
	}
	resp, err := c.authorized(ctx, "update vehicle", http.MethodPut, "/vehicles/"+url.PathEscape(string(v.ID)), nil, token, vehicleToDTO(v, true))
	if err != nil {
		return domain.Vehicle{}, err
	}
	if !resp.ok() {
		return domain.Vehicle{}, resp.statusError()
	}
	return echoedVehicle(resp, v), nil
}

// echoedVehicle returns the record the backend echoed back, or the submitted one when
// the response body is not a record.
func echoedVehicle(resp response, sent domain.Vehicle) domain.Vehicle {
	var d vehicleDTO
	if err := json.Unmarshal(resp.body, &d); err != nil || d.ID == "" {
		return sent
	}
	return d.toDomain()
}

func (c *Client) DeleteVehicle(ctx context.Context, token string, id domain.VehicleID) error {
	resp, err := c.authorized(ctx, "delete vehicle", http.MethodDelete, "/vehicles/"+url.PathEscape(string(id)), nil, token, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.statusError()
	}
	return nil
}

func (c *Client) ListStaff(ctx context.Context, token string) ([]domain.StaffMember, error) {
	const op = "list staff"
	resp, err := c.authorized(ctx, op, http.MethodGet, "/admins", nil, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.statusError()
	}
	dtos, err := decodeJSON[[]staffDTO](op, resp)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StaffMember, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) DeleteStaff(ctx context.Context, token string, id domain.StaffID) error {
	resp, err := c.authorized(ctx, "delete staff", http.MethodDelete, "/admins/"+url.PathEscape(string(id)), nil, token, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.statusError()
	}
	return nil
}
