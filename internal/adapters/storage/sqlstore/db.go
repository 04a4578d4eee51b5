// Package sqlstore persists quotations and journal configurations with sqlx.
// PostgreSQL (lib/pq) is the production target; SQLite (go-sqlite3) backs the
// local profile and unit tests. Queries are written with '?' placeholders and
// rebound for the active driver.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Config holds connection settings.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// Each sqlite connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Migrate applies embedded migrations for the driver in lexical order,
// recording each one in schema_migrations.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	dir, err := migrationDir(db.DriverName())
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(name, ".up.sql")

		var applied int
		if err := db.GetContext(ctx, &applied,
			db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}

		if applied > 0 {
			continue
		}

		script, err := migrationsFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		err = withTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}

			_, err := tx.ExecContext(ctx,
				tx.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
				version, time.Now().UTC())

			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}

		logger.Info("applied migration", slog.String("version", version))
	}

	return nil
}

func migrationDir(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "migrations/postgres", nil
	case DriverSQLite:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// HealthChecker reports database reachability.
type HealthChecker struct {
	db *sqlx.DB
}

// NewHealthChecker wraps db for the health registry.
func NewHealthChecker(db *sqlx.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// Name implements ports.HealthChecker.
func (h *HealthChecker) Name() string { return "database" }

// Check implements ports.HealthChecker.
func (h *HealthChecker) Check(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
