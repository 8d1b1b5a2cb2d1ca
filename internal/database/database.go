// Package database provides database connectivity and the HS selection store.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/retry"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

// Config holds database configuration.
type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string //nolint:gosec // DB connection config
	DBName   string
	SSLMode  string
	// Path is the SQLite file, or ":memory:".
	Path string
}

// DSN returns the driver-specific connection string.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverPostgres, "":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		), nil
	case DriverSQLite:
		if c.Path == "" {
			return "", errors.New("sqlite path is required")
		}
		if c.Path == ":memory:" {
			return c.Path, nil
		}
		return c.Path + "?_journal_mode=WAL&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func (c Config) driverName() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

// Open connects to the configured database, retrying transient failures.
func Open(ctx context.Context, cfg Config, retryCfg retry.Config) (*sqlx.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	driver := cfg.driverName()

	if driver == DriverSQLite && cfg.Path != ":memory:" {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", mkErr)
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One connection keeps an in-memory database alive and serializes writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	}

	pingErr := retry.Retry(ctx, retryCfg, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

const selectionsSchema = `
CREATE TABLE IF NOT EXISTS hs_selections (
	id              VARCHAR(36)      PRIMARY KEY,
	pratica_id      VARCHAR(128)     NOT NULL,
	machinery_id    VARCHAR(128),
	hs_code         VARCHAR(16)      NOT NULL,
	description     TEXT             NOT NULL,
	confidence      DOUBLE PRECISION,
	duty_rate       DOUBLE PRECISION NOT NULL,
	vat_rate        DOUBLE PRECISION NOT NULL,
	lexicon_version VARCHAR(64)      NOT NULL,
	selected_by     VARCHAR(255)     NOT NULL DEFAULT '',
	created_at      TIMESTAMP        NOT NULL
)`

const selectionsIndex = `CREATE INDEX IF NOT EXISTS idx_hs_selections_pratica ON hs_selections (pratica_id, created_at)`

// EnsureSchema creates the selections table when missing. It is meant for
// development and SQLite deployments; Postgres schemas are applied from
// migrations/.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range []string{selectionsSchema, selectionsIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity with the default timeout.
func Ping(ctx context.Context, db *sqlx.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	return db.PingContext(pingCtx)
}

// Redact hides the password in a DSN for logging.
func Redact(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}
