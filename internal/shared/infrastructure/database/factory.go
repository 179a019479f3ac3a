package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and tunes the backend.
type Config struct {
	// Driver is "postgres", "sqlite", or empty/"auto" to infer it from URL.
	Driver Driver
	// URL is a PostgreSQL DSN or a sqlite:// path.
	URL string
	// SQLitePath overrides the file derived from URL; ":memory:" is allowed.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool; zero keeps the pgx default.
	MaxConns int
}

// Opener opens a connection for one backend.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

// openers is filled by the backend packages' init functions.
var openers = map[Driver]Opener{}

// RegisterPostgresDriver installs the PostgreSQL opener.
func RegisterPostgresDriver(open Opener) { openers[DriverPostgres] = open }

// RegisterSQLiteDriver installs the SQLite opener.
func RegisterSQLiteDriver(open Opener) { openers[DriverSQLite] = open }

// NewConnection opens cfg's backend. The backend package must be linked in,
// usually through a blank import of database/postgres or database/sqlite.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	if cfg.Driver == "" || cfg.Driver == "auto" {
		cfg.Driver = DetectDriver(cfg.URL)
	}
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", cfg.Driver)
	}
	if cfg.Driver == DriverSQLite && cfg.SQLitePath == "" && cfg.URL != "" {
		cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is ~/.slotwise/slotwise.db, or ./.slotwise/slotwise.db
// when the home directory is unknown.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slotwise", "slotwise.db")
}

// EnsureDirectory creates the directory that will hold the file at path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o750)
}
