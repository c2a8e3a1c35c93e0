package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds all process settings. It is read once at startup.
type Config struct {
	Port           int
	AllowedOrigins []string
	Database       Database
	Log            Log
	RateLimit      RateLimit
}

type Database struct {
	Driver          string
	Path            string // SQLite file
	URL             string // MySQL DSN
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LockDir         string
}

type Log struct {
	Level      slog.Level
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// RateLimit is disabled when RPS is zero.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}

	cfg := &Config{
		Port:           e.integer("PORT", 5000),
		AllowedOrigins: e.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Database: Database{
			Driver:          strings.ToLower(e.str("DB_DRIVER", DriverSQLite)),
			Path:            e.str("DB_PATH", "catalogo.db"),
			URL:             e.str("DATABASE_URL", ""),
			MaxOpenConns:    e.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    e.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			LockDir:         e.str("LOCK_DIR", ""),
		},
		Log: Log{
			File:       e.str("LOG_FILE", ""),
			MaxSize:    e.integer("LOG_MAX_SIZE_MB", 50),
			MaxBackups: e.integer("LOG_MAX_BACKUPS", 3),
			MaxAge:     e.integer("LOG_MAX_AGE_DAYS", 28),
			Compress:   e.boolean("LOG_COMPRESS", true),
		},
		RateLimit: RateLimit{
			RPS:   e.float("RATE_LIMIT_RPS", 0),
			Burst: e.integer("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(e.str("LOG_LEVEL", "INFO"))); err != nil {
		e.errs = append(e.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit values must not be negative")
	}
	return nil
}

// env collects parse errors so every bad key is reported at once.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) list(key string, def []string) []string {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
