// Package database provides the embedded SQLite store and its migration
// runner (spec §6 "embedded SQL store with write-ahead journaling enabled,
// foreign keys on").
package database

import (
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds the embedded store's file location and connection pool
// tunables. Unlike the teacher's Postgres Config, there is no
// host/port/user/password — SQLite is a single file.
type Config struct {
	Path string // e.g. "./data/chatserver.db"

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Client wraps the raw *sql.DB handle. Executors issue plain prepared
// statements against it directly (spec §6 "synchronous prepared
// statements"); there is no ORM layer.
type Client struct {
	db *stdsql.DB
}

// DB returns the underlying connection for health checks and the
// persistence executor's prepared statements.
func (c *Client) DB() *stdsql.DB { return c.db }

// Close releases the underlying connection.
func (c *Client) Close() error { return c.db.Close() }

// NewClient opens the SQLite file at cfg.Path, enables WAL journaling and
// foreign keys, and applies any pending migrations.
func NewClient(cfg Config) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.Path)

	db, err := stdsql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serialises writes at the engine level; a single-connection pool
	// avoids "database is locked" errors under concurrent executor pools
	// (spec §4.6 "the underlying engine serialises writes").
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Client{db: db}, nil
}

// NewClientFromDB wraps an already-open connection, useful for tests that
// share an in-memory database across setup and assertions.
func NewClientFromDB(db *stdsql.DB) *Client { return &Client{db: db} }

// runMigrations applies every embedded migration using golang-migrate, the
// way the teacher's runMigrations drives Postgres migrations — only the
// underlying database driver differs.
func runMigrations(db *stdsql.DB) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("failed to check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found")
	}

	driver, err := newSqliteDriver(db)
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "chatserver", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return sourceDriver.Close()
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 4 && entry.Name()[len(entry.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}
