package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/roomview/internal/rtdb"
)

func collectSnapshots(t *testing.T, s *Store, path string) (<-chan rtdb.Snapshot, rtdb.CancelFunc) {
	t.Helper()

	ch := make(chan rtdb.Snapshot, 16)
	cancel := s.Subscribe(path, func(snap rtdb.Snapshot) {
		ch <- snap
	})
	return ch, cancel
}

func nextSnapshot(t *testing.T, ch <-chan rtdb.Snapshot) rtdb.Snapshot {
	t.Helper()

	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return rtdb.Snapshot{}
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	defer s.Close()

	if _, err := s.Get(context.Background(), "Rooms/nope"); err != rtdb.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPushKeysAreOrdered(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	var keys []string
	for i := 0; i < 5; i++ {
		key, err := s.Push(ctx, "Messages", rtdb.Value{"content": "hi"})
		if err != nil {
			t.Fatalf("push: %v", err)
		}
		keys = append(keys, key)
	}

	snap := rtdb.Snapshot{}
	done := make(chan struct{})
	cancel := s.Subscribe("Messages", func(got rtdb.Snapshot) {
		snap = got
		close(done)
	})
	defer cancel()
	<-done

	if len(snap.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(snap.Children))
	}
	for i, child := range snap.Children {
		if child.Key != keys[i] {
			t.Errorf("child %d: got key %s, want %s", i, child.Key, keys[i])
		}
		if i > 0 && snap.Children[i-1].Key >= child.Key {
			t.Errorf("keys not ascending at index %d", i)
		}
	}
}

func TestSubscribeDeliversInitialAndUpdates(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	ch, cancel := collectSnapshots(t, s, "Rooms/general")
	defer cancel()

	initial := nextSnapshot(t, ch)
	if initial.Doc != nil {
		t.Fatalf("expected nil doc for missing room, got %v", initial.Doc)
	}

	if err := s.Update(ctx, "Rooms/general", rtdb.Value{"name": "General"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snap := nextSnapshot(t, ch)
	if snap.Doc["name"] != "General" {
		t.Fatalf("expected updated doc, got %v", snap.Doc)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, "Rooms/a", rtdb.Value{"name": "A", "totalMessages": 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Update(ctx, "Rooms/a", rtdb.Value{"totalMessages": 2}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := s.Get(ctx, "Rooms/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["name"] != "A" || doc["totalMessages"] != 2 {
		t.Fatalf("merge lost fields: %v", doc)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	ch, cancel := collectSnapshots(t, s, "Messages")
	nextSnapshot(t, ch) // initial

	cancel()

	if _, err := s.Push(ctx, "Messages", rtdb.Value{"content": "late"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case snap := <-ch:
		if len(snap.Children) != 0 {
			t.Fatalf("delivery after cancel: %v", snap)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUpdateCreatedChildAppearsInCollection(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	// A document created through Update, not Push, still belongs to its
	// collection's child list.
	if err := s.Update(ctx, "Rooms/general", rtdb.Value{"name": "General"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	ch, cancel := collectSnapshots(t, s, "Rooms")
	defer cancel()

	snap := nextSnapshot(t, ch)
	if len(snap.Children) != 1 || snap.Children[0].Key != "general" {
		t.Fatalf("created document missing from collection snapshot: %v", snap)
	}
	if snap.Children[0].Doc["name"] != "General" {
		t.Fatalf("unexpected child doc: %v", snap.Children[0].Doc)
	}
}

func TestChildUpdateNotifiesCollection(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	key, err := s.Push(ctx, "Messages", rtdb.Value{"content": "hi"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	ch, cancel := collectSnapshots(t, s, "Messages")
	defer cancel()
	nextSnapshot(t, ch) // initial

	if err := s.Update(ctx, rtdb.Join("Messages", key), rtdb.Value{"content": "edited"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snap := nextSnapshot(t, ch)
	if len(snap.Children) != 1 || snap.Children[0].Doc["content"] != "edited" {
		t.Fatalf("expected edited child, got %v", snap)
	}
}
