// Package database provides the PostgreSQL client and migration
// utilities for the application stores.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
)

//go:embed migrations
var migrationsFS embed.FS

// Client wraps the application database connection.
type Client struct {
	db *sql.DB
}

// DB returns the underlying connection for direct queries and health
// checks.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// NewClient opens a pooled connection and applies pending migrations.
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Client{db: db}, nil
}

// runMigrations applies the embedded migration files with
// golang-migrate. Migrations ship inside the binary via go:embed so
// deployments need no external files.
func runMigrations(db *sql.DB) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("failed to check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Close only the source driver. m.Close() would also close the
	// shared *sql.DB passed via postgres.WithInstance.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("failed to close migration source: %w", err)
	}
	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return true, nil
		}
	}
	return false, nil
}
