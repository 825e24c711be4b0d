package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens (or creates) the database at storagePath and migrates its schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// Open (or create if it doesn't exist) the database file.
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Check if the connection is actually established.
	if err = dtb.PingContext(ctx); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	// Perform the initial schema migration.
	if err = initSchema(ctx, dtb); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS snapshot_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		taken_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS catalog_entries (
		position INTEGER PRIMARY KEY,
		entry_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		long_description TEXT NOT NULL,
		ticket_cost TEXT,
		stock INTEGER,
		image_url TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY,
		subscribed_at TEXT NOT NULL
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
