package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/rtdb/memory"
)

type stubDirectory struct {
	users map[string]*User
	err   error
}

func (d *stubDirectory) GetUser(_ context.Context, id string) (*User, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

func TestResolveFound(t *testing.T) {
	logger := zerolog.New(nil)
	r := NewResolver(&stubDirectory{users: map[string]*User{
		"u1": {DisplayName: "Alice", PhotoURL: "https://example.com/a.png"},
	}}, &logger)

	sender := r.Resolve(context.Background(), "u1")
	if sender.Name != "Alice" {
		t.Errorf("expected resolved name, got %q", sender.Name)
	}
	if sender.PhotoURL != "https://example.com/a.png" {
		t.Errorf("expected photo url, got %q", sender.PhotoURL)
	}
}

func TestResolveNotFoundFallsBack(t *testing.T) {
	logger := zerolog.New(nil)
	r := NewResolver(&stubDirectory{}, &logger)

	sender := r.Resolve(context.Background(), "ghost")
	if sender.Name != "ghost" {
		t.Errorf("expected raw id pass-through, got %q", sender.Name)
	}
	if sender.PhotoURL != "" {
		t.Errorf("expected empty photo, got %q", sender.PhotoURL)
	}
}

func TestResolveLookupErrorFallsBack(t *testing.T) {
	logger := zerolog.New(nil)
	r := NewResolver(&stubDirectory{err: errors.New("directory offline")}, &logger)

	sender := r.Resolve(context.Background(), "u1")
	if sender.Name != "u1" || sender.PhotoURL != "" {
		t.Errorf("expected fallback sender, got %+v", sender)
	}
}

func TestStoreDirectory(t *testing.T) {
	store := memory.New()
	defer store.Close()
	ctx := context.Background()

	err := store.Update(ctx, "Users/u1", rtdb.Value{
		"displayName": "Alice",
		"photoURL":    "https://example.com/a.png",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	dir := NewStoreDirectory(store)

	user, err := dir.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.DisplayName != "Alice" || user.PhotoURL != "https://example.com/a.png" {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := dir.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
