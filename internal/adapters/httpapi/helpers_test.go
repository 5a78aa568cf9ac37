package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memclock "github.com/gatepass-registry/gatepass/internal/adapters/memory/clock"
	memidempotency "github.com/gatepass-registry/gatepass/internal/adapters/memory/idempotency"
	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
	"github.com/gatepass-registry/gatepass/internal/ports/out/idempotency"
)

const (
	seedMobile   = "1234567890"
	seedPassword = "admin123"
)

type testEnv struct {
	h      http.Handler
	srv    *Server
	tokens *sessiontoken.Issuer
	clk    *memclock.ManualClock
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	return newTestEnvWith(t, nil, nil)
}

// newTestEnvWith swaps in idem and logger; nil keeps the defaults.
func newTestEnvWith(t *testing.T, idem idempotency.Store, logger *slog.Logger) testEnv {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if idem == nil {
		idem = memidempotency.NewStore(clk, time.Hour)
	}
	tokens := sessiontoken.New(config.DevServerConfig{
		TokenSecret: "0123456789abcdef0123456789abcdef",
		TokenIssuer: "test-iss",
		TokenTTL:    time.Hour,
	}, clk)

	dir := NewDirectory(WithHashCost(bcrypt.MinCost))
	srv := NewServer(dir, idem, tokens, clk, logger)
	if err := srv.SeedSuperAdmin(context.Background(), seedMobile, seedPassword); err != nil {
		t.Fatalf("SeedSuperAdmin: %v", err)
	}
	return testEnv{h: NewRouter(srv), srv: srv, tokens: tokens, clk: clk}
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithHeader(t, method, path, token, nil, body)
}

func (e testEnv) doWithHeader(t *testing.T, method, path, token string, header http.Header, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) login(t *testing.T, mobile, password, role string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"mobile": mobile, "password": password, "role": role})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", mobile, rec.Code, rec.Body.String())
	}
	var out loginResponse
	decode(t, rec, &out)
	return out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m messageResponse
	decode(t, rec, &m)
	return m.Message
}
