// Package config loads client and dev server settings. Values come from built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	ProductionAPIBaseURL  = "https://vechile-validator-backend.onrender.com/api"
	DevelopmentAPIBaseURL = "http://localhost:5001/api"
)

type StoreBackend string

const (
	StoreBadger   StoreBackend = "badger"
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

type StoreConfig struct {
	Backend StoreBackend
	// Dir is the badger data directory.
	Dir         string
	RedisURL    string
	PostgresURL string
	// Namespace separates devices sharing one redis or postgres store.
	Namespace string
}

type Config struct {
	Environment      string
	APIBaseURL       string
	HTTPTimeout      time.Duration
	BootstrapTimeout time.Duration
	LogLevel         slog.Level
	Store            StoreConfig
}

// fileConfig is the YAML layout. Durations use time.ParseDuration syntax.
type fileConfig struct {
	Environment      string `yaml:"environment"`
	APIBaseURL       string `yaml:"api_base_url"`
	HTTPTimeout      string `yaml:"http_timeout"`
	BootstrapTimeout string `yaml:"bootstrap_timeout"`
	LogLevel         string `yaml:"log_level"`
	Store            struct {
		Backend     string `yaml:"backend"`
		Dir         string `yaml:"dir"`
		RedisURL    string `yaml:"redis_url"`
		PostgresURL string `yaml:"postgres_url"`
		Namespace   string `yaml:"namespace"`
	} `yaml:"store"`
}

func Default() Config {
	return Config{
		Environment:      EnvProduction,
		HTTPTimeout:      15 * time.Second,
		BootstrapTimeout: 3 * time.Second,
		LogLevel:         slog.LevelWarn,
		Store: StoreConfig{
			Backend:   StoreBadger,
			Namespace: "default",
		},
	}
}

// DefaultFile is the config file read when none is named explicitly.
func DefaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gatepass", "config.yaml")
}

// Load builds the configuration. path names a YAML file that must exist; an empty
// path falls back to DefaultFile, which may be absent. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, b); err != nil {
				return Config{}, fmt.Errorf("config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := finish(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, b []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return err
	}
	set := map[string]string{
		"GATEPASS_ENV":               fc.Environment,
		"GATEPASS_API_BASE_URL":      fc.APIBaseURL,
		"GATEPASS_HTTP_TIMEOUT":      fc.HTTPTimeout,
		"GATEPASS_BOOTSTRAP_TIMEOUT": fc.BootstrapTimeout,
		"GATEPASS_LOG_LEVEL":         fc.LogLevel,
		"GATEPASS_STORE":             fc.Store.Backend,
		"GATEPASS_STORE_DIR":         fc.Store.Dir,
		"GATEPASS_REDIS_URL":         fc.Store.RedisURL,
		"DATABASE_URL":               fc.Store.PostgresURL,
		"GATEPASS_STORE_NAMESPACE":   fc.Store.Namespace,
	}
	return applyEnv(cfg, func(k string) string { return set[k] })
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("GATEPASS_ENV"); v != "" {
		cfg.Environment = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv("GATEPASS_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := getenv("GATEPASS_HTTP_TIMEOUT"); v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			return fmt.Errorf("GATEPASS_HTTP_TIMEOUT must be a duration (e.g. 15s): %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if v := getenv("GATEPASS_BOOTSTRAP_TIMEOUT"); v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			return fmt.Errorf("GATEPASS_BOOTSTRAP_TIMEOUT must be a duration (e.g. 3s): %w", err)
		}
		cfg.BootstrapTimeout = d
	}
	if v := getenv("GATEPASS_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return fmt.Errorf("GATEPASS_LOG_LEVEL must be debug, info, warn or error: %w", err)
		}
	}
	if v := getenv("GATEPASS_STORE"); v != "" {
		cfg.Store.Backend = StoreBackend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := getenv("GATEPASS_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := getenv("GATEPASS_REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Store.PostgresURL = v
	}
	if v := getenv("GATEPASS_STORE_NAMESPACE"); v != "" {
		cfg.Store.Namespace = v
	}
	return nil
}

func finish(cfg *Config) error {
	switch cfg.Environment {
	case EnvProduction, EnvDevelopment:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvProduction, EnvDevelopment, cfg.Environment)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = ProductionAPIBaseURL
		if cfg.Environment == EnvDevelopment {
			cfg.APIBaseURL = DevelopmentAPIBaseURL
		}
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url %q must be an absolute http(s) url", cfg.APIBaseURL)
	}

	switch cfg.Store.Backend {
	case StoreBadger:
		if cfg.Store.Dir == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("no store dir configured and no user config dir: %w", err)
			}
			cfg.Store.Dir = filepath.Join(dir, "gatepass", "session")
		}
	case StoreRedis:
		if cfg.Store.RedisURL == "" {
			return errors.New("GATEPASS_REDIS_URL is required for the redis store")
		}
	case StorePostgres:
		if cfg.Store.PostgresURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
