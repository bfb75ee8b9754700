package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/auth"
	"github.com/vovakirdan/roomview/internal/config"
	"github.com/vovakirdan/roomview/internal/directory"
	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/rtdb/memory"
)

const testSecret = "test-secret"

// startTestServer builds a gateway over a fresh in-memory store with a
// seeded room and user.
func startTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.Update(ctx, "Rooms/general", rtdb.Value{
		"name":        "General",
		"description": "everything else",
	}); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := store.Update(ctx, "Users/u1", rtdb.Value{
		"displayName": "Alice",
		"photoURL":    "https://example.com/a.png",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	logger := zerolog.New(nil)
	resolver := directory.NewResolver(directory.NewStoreDirectory(store), &logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.JWT.Secret = testSecret

	server := NewServer(store, resolver, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, store
}

// testToken issues a token the test server accepts.
func testToken(t *testing.T, userID string) string {
	t.Helper()

	cfg := config.Default()
	token, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte(testSecret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      time.Hour,
	}, userID)
	if err != nil {
		t.Fatalf("generate test token: %v", err)
	}
	return token
}
