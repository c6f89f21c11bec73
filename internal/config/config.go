package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvProvider         = "DATABASE_PROVIDER"
	EnvConnectionString = "DATABASE_CONNECTION_STRING"
	EnvAuditingEnabled  = "DATABASE_AUDITING_ENABLED"
	EnvReset            = "DATABASE_RESET"
	EnvSensitiveLogging = "DATABASE_SENSITIVE_LOGGING"
)

const (
	DefaultSQLiteConnectionString   = "persistence.db"
	DefaultInMemoryConnectionString = ":memory:"
)

var (
	ErrInvalidProvider         = errors.New("invalid DATABASE_PROVIDER")
	ErrMissingConnectionString = errors.New("DATABASE_CONNECTION_STRING is not set")
	ErrInvalidBool             = errors.New("invalid boolean value")
	ErrMissingSessionSecret    = errors.New("SESSION_SECRET is not set")
)

type Provider string

const (
	InMemory  Provider = "InMemory"
	SQLite    Provider = "SQLite"
	SqlServer Provider = "SqlServer"
	Postgres  Provider = "Postgres"
)

var providers = []Provider{InMemory, SQLite, SqlServer, Postgres}

// ParseProvider accepts the provider names case-insensitively.
func ParseProvider(s string) (Provider, error) {
	for _, p := range providers {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s, %s, %s, %s)", ErrInvalidProvider, s, InMemory, SQLite, SqlServer, Postgres)
}

type DatabaseConfig struct {
	Provider         Provider
	ConnectionString string
	Auditing         bool
	Reset            bool
	SensitiveLogging bool
	// Warnings collected while resolving defaults, logged by the caller.
	Warnings []string
}

type Config struct {
	Database      DatabaseConfig
	ServerPort    string
	SessionSecret string
	LogLevel      string
	LogFormat     string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	db, err := LoadDatabase(os.Getenv)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database:      *db,
		ServerPort:    os.Getenv("SERVER_PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		return nil, ErrMissingSessionSecret
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// LoadDatabase resolves the database section from getenv.
func LoadDatabase(getenv func(string) string) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{}

	raw := strings.TrimSpace(getenv(EnvProvider))
	if raw == "" {
		cfg.Provider = SQLite
		cfg.Warnings = append(cfg.Warnings, EnvProvider+" not configured, using SQLite database")
	} else {
		p, err := ParseProvider(raw)
		if err != nil {
			return nil, err
		}
		cfg.Provider = p
	}

	cs, err := ResolveConnectionString(cfg.Provider, getenv(EnvConnectionString))
	if err != nil {
		return nil, err
	}
	cfg.ConnectionString = cs

	if cfg.Auditing, err = parseBool(getenv, EnvAuditingEnabled, true); err != nil {
		return nil, err
	}
	if cfg.Reset, err = parseBool(getenv, EnvReset, false); err != nil {
		return nil, err
	}
	if cfg.SensitiveLogging, err = parseBool(getenv, EnvSensitiveLogging, false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveConnectionString applies the per-provider defaults.
func ResolveConnectionString(p Provider, configured string) (string, error) {
	if p == InMemory {
		return DefaultInMemoryConnectionString, nil
	}
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured, nil
	}
	if p == SQLite {
		return DefaultSQLiteConnectionString, nil
	}
	return "", fmt.Errorf("%w for provider %s", ErrMissingConnectionString, p)
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w for %s: %q", ErrInvalidBool, key, raw)
	}
	return v, nil
}
