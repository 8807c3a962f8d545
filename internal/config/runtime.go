package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultVerifyTokenTTL = "24h"
	defaultMinLeadTime    = "2h"
	defaultCurrency       = "GBP"
	defaultJWTSecret      = "change-me-jwt-secret"
)

type RuntimeConfig struct {
	AppEnv         string
	JWTSecret      string
	VerifyTokenTTL time.Duration
	MinLeadTime    time.Duration
	Currency       string
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.Currency = strings.ToUpper(strings.TrimSpace(getEnv("CURRENCY", defaultCurrency)))

	var err error
	cfg.VerifyTokenTTL, err = parseDurationEnv("REFUND_VERIFY_TOKEN_TTL", defaultVerifyTokenTTL)
	if err != nil {
		return nil, err
	}

	cfg.MinLeadTime, err = parseDurationEnv("BOOKING_MIN_LEAD_TIME", defaultMinLeadTime)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.VerifyTokenTTL <= 0 {
		return fmt.Errorf("REFUND_VERIFY_TOKEN_TTL must be > 0")
	}
	if cfg.MinLeadTime < 0 {
		return fmt.Errorf("BOOKING_MIN_LEAD_TIME must be >= 0")
	}
	if len(cfg.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code, got %q", cfg.Currency)
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
