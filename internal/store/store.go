// Package store persists simulation runs in SQLite or PostgreSQL.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver.
	_ "modernc.org/sqlite" // SQLite driver.
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store wraps the run archive.
type Store struct {
	db     *sqlx.DB
	driver string
	log    *slog.Logger
}

// DetectDriver picks the database driver for a DSN. PostgreSQL URLs and
// key/value connection strings use lib/pq; anything else is a SQLite path.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}

// Open connects to the archive named by dsn and applies migrations. SQLite
// parent directories are created as needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	driver := DetectDriver(dsn)
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection serializes writers on the same file.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, driver: driver, log: slog.Default().With("component", "store", "driver", driver)}
	if err := store.migrate(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	store.log.Debug("archive ready")
	return store, nil
}

// Driver returns the database driver in use.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY"
	if s.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			` + idColumn + `,
			run_key TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			config_json TEXT NOT NULL,
			summary_json TEXT NOT NULL,
			csv_text TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_populations (
			run_id BIGINT NOT NULL,
			population TEXT NOT NULL,
			completion_rate DOUBLE PRECISION NOT NULL,
			avg_touchpoints DOUBLE PRECISION NOT NULL,
			avg_total_time DOUBLE PRECISION NOT NULL,
			n INTEGER NOT NULL,
			PRIMARY KEY (run_id, population)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_run_populations_population ON run_populations(population);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}
