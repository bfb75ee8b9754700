// Package sqlite backs the user directory with a local SQLite database,
// for deployments where user profiles live outside the realtime store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/roomview/internal/directory"
)

// Directory implements directory.Directory over SQLite.
type Directory struct {
	db *sql.DB
}

// New opens the directory database at dbPath.
func New(dbPath string) (*Directory, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Directory{db: db}, nil
}

// NewWithSetup opens the database and runs a setup function first.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*Directory, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Directory{db: db}, nil
}

// Close closes the database connection.
func (d *Directory) Close() error {
	return d.db.Close()
}

// GetUser retrieves a user record by id.
func (d *Directory) GetUser(ctx context.Context, id string) (*directory.User, error) {
	query := `
		SELECT display_name, COALESCE(photo_url, '')
		FROM users
		WHERE id = ?
	`
	var user directory.User
	err := d.db.QueryRowContext(ctx, query, id).Scan(&user.DisplayName, &user.PhotoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// PutUser inserts or replaces a user record. Used by provisioning tools
// and tests; the chat core itself never writes the directory.
func (d *Directory) PutUser(ctx context.Context, id string, user *directory.User) error {
	query := `
		INSERT INTO users (id, display_name, photo_url)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, photo_url = excluded.photo_url
	`
	if _, err := d.db.ExecContext(ctx, query, id, user.DisplayName, user.PhotoURL); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
