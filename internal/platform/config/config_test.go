package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != ProductionAPIBaseURL {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Store.Backend != StoreBadger || !strings.HasSuffix(cfg.Store.Dir, filepath.Join("gatepass", "session")) {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.HTTPTimeout != 15*time.Second || cfg.BootstrapTimeout != 3*time.Second || cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_DevelopmentDefaultsToLocalBackend(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, "environment: development\n"), envMap(map[string]string{"GATEPASS_STORE": "memory"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != DevelopmentAPIBaseURL {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
api_base_url: https://registry.example.com/api
http_timeout: 5s
log_level: info
store:
  backend: redis
  redis_url: redis://file:6379/0
  namespace: gate-a
`)
	cfg, err := Load(path, envMap(map[string]string{
		"GATEPASS_REDIS_URL": "redis://env:6379/1",
		"GATEPASS_LOG_LEVEL": "debug",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://registry.example.com/api" || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Store.RedisURL != "redis://env:6379/1" || cfg.Store.Namespace != "gate-a" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "bad timeout", env: map[string]string{"GATEPASS_HTTP_TIMEOUT": "soon"}, want: "GATEPASS_HTTP_TIMEOUT"},
		{name: "negative timeout", env: map[string]string{"GATEPASS_BOOTSTRAP_TIMEOUT": "-1s"}, want: "GATEPASS_BOOTSTRAP_TIMEOUT"},
		{name: "bad level", env: map[string]string{"GATEPASS_LOG_LEVEL": "loud"}, want: "GATEPASS_LOG_LEVEL"},
		{name: "bad env", env: map[string]string{"GATEPASS_ENV": "staging"}, want: "environment"},
		{name: "relative url", env: map[string]string{"GATEPASS_API_BASE_URL": "/api"}, want: "api base url"},
		{name: "unknown store", env: map[string]string{"GATEPASS_STORE": "sqlite"}, want: "unknown store"},
		{name: "redis without url", env: map[string]string{"GATEPASS_STORE": "redis"}, want: "GATEPASS_REDIS_URL"},
		{name: "postgres without url", env: map[string]string{"GATEPASS_STORE": "postgres"}, want: "DATABASE_URL"},
		{name: "bad yaml", file: "store: [", want: "config file"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tt.file)
			_, err := Load(path, envMap(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil)); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestLoadDevServerConfigFromEnv(t *testing.T) {
	t.Parallel()

	if _, err := LoadDevServerConfigFromEnv(envMap(nil)); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := LoadDevServerConfigFromEnv(envMap(map[string]string{"DEV_JWT_SECRET": "short"})); err == nil {
		t.Fatalf("expected error for short secret")
	}
	if _, err := LoadDevServerConfigFromEnv(envMap(map[string]string{"DEV_JWT_SECRET": "0123456789abcdef", "DEV_JWT_TTL": "0s"})); err == nil {
		t.Fatalf("expected error for zero ttl")
	}

	cfg, err := LoadDevServerConfigFromEnv(envMap(map[string]string{
		"DEV_JWT_SECRET": "0123456789abcdef",
		"DEV_JWT_TTL":    "1h",
		"PORT":           "9000",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.TokenTTL != time.Hour || cfg.SeedMobile != "1234567890" || cfg.SeedPassword != "admin123" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
