// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	Addr            string
	Env             string
	WebDir          string
	ShutdownTimeout time.Duration

	Logging LoggingConfig
	Storage StorageConfig
	Session SessionConfig
	OIDC    OIDCConfig
	Tracing TracingConfig
	Metrics MetricsConfig
	Service ServiceConfig
}

// ServiceConfig names the running service for traces and the version command.
type ServiceConfig struct {
	Name    string
	Version string
}

// LoggingConfig selects the zerolog level and output format.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// StorageConfig picks the persistence backend and where it lives.
type StorageConfig struct {
	Backend     string
	DatabaseURL string
	SQLitePath  string
}

// SessionConfig controls session cookies and lifetimes.
type SessionConfig struct {
	CookieName string
	Lifetime   time.Duration
	// RenewWithin is the remaining lifetime below which a session is
	// extended. Zero means half the lifetime.
	RenewWithin   time.Duration
	SweepInterval time.Duration
}

// OIDCConfig configures optional single sign-on. SSO is off unless both
// issuer and client ID are set.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO is configured.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// MetricsConfig toggles the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	dur := func(key string, fallback time.Duration) time.Duration {
		d, err := envDuration(key, fallback)
		errs = append(errs, err)
		return d
	}
	boolean := func(key string, fallback bool) bool {
		b, err := envBool(key, fallback)
		errs = append(errs, err)
		return b
	}

	cfg := &Config{
		Addr:            env("ADDR", ":8080"),
		Env:             env("APP_ENV", "development"),
		WebDir:          env("WEB_DIR", "web"),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		Logging: LoggingConfig{
			Level:  env("LOG_LEVEL", "info"),
			Pretty: boolean("LOG_PRETTY", false),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(env("STORAGE", StoragePostgres)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  env("SQLITE_PATH", "jobflow.db"),
		},
		Session: SessionConfig{
			CookieName:    env("SESSION_COOKIE_NAME", "auth_session"),
			Lifetime:      dur("SESSION_LIFETIME", 30*24*time.Hour),
			RenewWithin:   dur("SESSION_RENEW_WITHIN", 0),
			SweepInterval: dur("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		OIDC: OIDCConfig{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
		Tracing: TracingConfig{
			Enabled:  boolean("TRACING_ENABLED", false),
			Endpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
		Metrics: MetricsConfig{
			Enabled: boolean("METRICS_ENABLED", true),
		},
		Service: ServiceConfig{
			Name:    env("SERVICE_NAME", "jobflow"),
			Version: env("SERVICE_VERSION", "dev"),
		},
	}

	rate, err := strconv.ParseFloat(env("OTEL_SAMPLE_RATE", "1"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE: %w", err))
	}
	cfg.Tracing.SampleRate = rate

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	case StorageMemory:
		if c.Production() {
			errs = append(errs, errors.New("memory storage is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be one of postgres, sqlite, memory; got %q", c.Storage.Backend))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.Session.Lifetime < time.Hour {
		errs = append(errs, errors.New("SESSION_LIFETIME must be at least 1h"))
	}
	if c.Session.RenewWithin < 0 || c.Session.RenewWithin >= c.Session.Lifetime {
		errs = append(errs, errors.New("SESSION_RENEW_WITHIN must be shorter than SESSION_LIFETIME"))
	}
	if c.OIDC.Enabled() && c.OIDC.RedirectURL == "" {
		errs = append(errs, errors.New("OIDC_REDIRECT_URL is required when OIDC is configured"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
