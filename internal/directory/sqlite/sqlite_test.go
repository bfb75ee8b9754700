package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/vovakirdan/roomview/internal/directory"
)

func createTestDirectory(t *testing.T) *Directory {
	t.Helper()

	d, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		query := `
		CREATE TABLE users (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			photo_url    TEXT,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`
		_, err := db.Exec(query)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return d
}

func TestGetUser(t *testing.T) {
	d := createTestDirectory(t)
	ctx := context.Background()

	err := d.PutUser(ctx, "u1", &directory.User{
		DisplayName: "Alice",
		PhotoURL:    "https://example.com/a.png",
	})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}

	user, err := d.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %q", user.DisplayName)
	}
	if user.PhotoURL != "https://example.com/a.png" {
		t.Errorf("unexpected photo url %q", user.PhotoURL)
	}
}

func TestGetUserMissing(t *testing.T) {
	d := createTestDirectory(t)

	_, err := d.GetUser(context.Background(), "nobody")
	if !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutUserOverwrites(t *testing.T) {
	d := createTestDirectory(t)
	ctx := context.Background()

	if err := d.PutUser(ctx, "u1", &directory.User{DisplayName: "Alice"}); err != nil {
		t.Fatalf("put user: %v", err)
	}
	if err := d.PutUser(ctx, "u1", &directory.User{DisplayName: "Alice B."}); err != nil {
		t.Fatalf("put user again: %v", err)
	}

	user, err := d.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.DisplayName != "Alice B." {
		t.Errorf("expected updated name, got %q", user.DisplayName)
	}
}
