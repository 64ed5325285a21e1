// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// TokenTTL is the fixed lifetime of an access token.
const TokenTTL = 24 * time.Hour

// DevJWTSecret signs tokens when APP_ENV=development and JWT_SECRET is unset.
// It must never be used anywhere else.
const DevJWTSecret = "gatekeeper-development-secret-do-not-deploy"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	minBcryptCost = 10
	maxBcryptCost = 14
	minSecretLen  = 32
)

// Config holds runtime settings for the gatekeeper server.
type Config struct {
	Env              string
	Port             string
	JWTSecret        string
	UsingDevSecret   bool
	BcryptCost       int
	StoreDriver      string
	DatabasePath     string
	DatabaseURL      string
	AdminEmail       string
	AdminPassword    string
	AllowAdminSignup bool
	LogLevel         slog.Level
}

// IsDevelopment reports whether the server runs in local development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// FromEnv loads Config from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from getenv, applying defaults and validating every
// value. All problems are reported together.
func Load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Env:           get("APP_ENV", EnvDevelopment),
		Port:          get("PORT", "8080"),
		JWTSecret:     getenv("JWT_SECRET"),
		StoreDriver:   strings.ToLower(get("STORE_DRIVER", DriverMemory)),
		DatabasePath:  get("DATABASE_PATH", "gatekeeper.db"),
		DatabaseURL:   get("DATABASE_URL", ""),
		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: getenv("ADMIN_PASSWORD"),
	}

	var errs []error

	switch cfg.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env))
	}

	switch {
	case cfg.JWTSecret == "" && cfg.Env == EnvDevelopment:
		cfg.JWTSecret = DevJWTSecret
		cfg.UsingDevSecret = true
	case cfg.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	case len(cfg.JWTSecret) < minSecretLen:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLen))
	}

	cfg.BcryptCost = 12
	if v := get("BCRYPT_COST", ""); v != "" {
		cost, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid BCRYPT_COST: %w", err))
		case cost < minBcryptCost || cost > maxBcryptCost:
			errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, cost))
		default:
			cfg.BcryptCost = cost
		}
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	if v := get("ALLOW_ADMIN_SIGNUP", ""); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid ALLOW_ADMIN_SIGNUP: %w", err))
		}
		cfg.AllowAdminSignup = allow
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
