package config

import (
	"errors"
	"fmt"
	"time"
)

// DevServerConfig configures the local registry backend.
type DevServerConfig struct {
	Port string

	// TokenSecret signs HS256 session tokens.
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration
	ClockSkew   time.Duration

	// SeedMobile and SeedPassword create the initial super-admin.
	SeedMobile   string
	SeedPassword string
}

const minTokenSecretLen = 16

func LoadDevServerConfigFromEnv(getenv func(string) string) (DevServerConfig, error) {
	cfg := DevServerConfig{
		Port:         "5001",
		TokenIssuer:  "gatepass-devserver",
		TokenTTL:     24 * time.Hour,
		ClockSkew:    30 * time.Second,
		SeedMobile:   "1234567890",
		SeedPassword: "admin123",
	}

	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.TokenSecret = getenv("DEV_JWT_SECRET")
	if cfg.TokenSecret == "" {
		return DevServerConfig{}, errors.New("missing required env var: DEV_JWT_SECRET")
	}
	if len(cfg.TokenSecret) < minTokenSecretLen {
		return DevServerConfig{}, fmt.Errorf("DEV_JWT_SECRET must be at least %d bytes", minTokenSecretLen)
	}
	if v := getenv("DEV_JWT_ISSUER"); v != "" {
		cfg.TokenIssuer = v
	}
	if v := getenv("DEV_JWT_TTL"); v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			return DevServerConfig{}, fmt.Errorf("DEV_JWT_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := getenv("DEV_JWT_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return DevServerConfig{}, fmt.Errorf("DEV_JWT_CLOCK_SKEW must be a duration (e.g. 30s): %w", err)
		}
		cfg.ClockSkew = d
	}
	if v := getenv("DEV_SEED_MOBILE"); v != "" {
		cfg.SeedMobile = v
	}
	if v := getenv("DEV_SEED_PASSWORD"); v != "" {
		cfg.SeedPassword = v
	}
	return cfg, nil
}
