// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds every setting the binary reads at startup.
type Config struct {
	Addr   string
	WebDir string
	AppEnv string

	Store       string
	DatabaseURL string
	SQLitePath  string

	LogLevel  string
	LogFormat string

	SessionTTL       time.Duration
	JWTSecret        string
	TrustForwardAuth bool
	DisableAuth      bool
	InitialUser      string
	InitialPassword  string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Variables already set in the environment win over
// file values. A missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	ttl, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:             getEnv("ADDR", ":8080"),
		WebDir:           getEnv("WEB_DIR", "web"),
		AppEnv:           normalizeEnv(getEnv("APP_ENV", "production")),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "data/health.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		SessionTTL:       ttl,
		JWTSecret:        getEnv("AUTH_JWT_SECRET", ""),
		TrustForwardAuth: getEnvBool("TRUST_FORWARD_AUTH", false),
		DisableAuth:      getEnvBool("DISABLE_AUTH", false),
		InitialUser:      getEnv("INITIAL_USER", ""),
		InitialPassword:  getEnv("INITIAL_PASSWORD", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(getEnv("STORE", "")))
	if cfg.Store == "" {
		cfg.Store = StoreSQLite
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.DisableAuth && c.AppEnv != "development" {
		return errors.New("DISABLE_AUTH is only allowed when APP_ENV=development")
	}
	if (c.InitialUser == "") != (c.InitialPassword == "") {
		return errors.New("INITIAL_USER and INITIAL_PASSWORD must be set together")
	}
	return nil
}

// OIDCEnabled reports whether single sign-on is configured.
func (c *Config) OIDCEnabled() bool {
	return c != nil && c.OIDCIssuer != "" && c.OIDCClientID != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, value)
	}
	return d, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
