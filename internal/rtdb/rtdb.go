// Package rtdb defines the keyed realtime document store the chat core is
// built against. Paths are slash-separated: a single segment ("Messages")
// addresses a collection of keyed children, two segments ("Rooms/general")
// address a single document. Subscribers receive a full snapshot of the
// subscribed path on every change under it, starting with the current state.
package rtdb

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get for a missing document.
var ErrNotFound = errors.New("rtdb: not found")

// Value holds the fields of a single document.
type Value map[string]any

// Child is one keyed document inside a collection. Children are ordered by
// key; push keys sort by creation time, so child order is chronological.
type Child struct {
	Key string
	Doc Value
}

// Snapshot is the full state of a subscribed path. Exactly one of Doc and
// Children is meaningful: Doc for document paths, Children for collections.
// A missing document yields a nil Doc; an empty collection yields an empty,
// non-nil Children slice.
type Snapshot struct {
	Doc      Value
	Children []Child
}

// SnapshotFunc receives snapshots for a subscribed path.
type SnapshotFunc func(Snapshot)

// CancelFunc tears down a subscription. Safe to call more than once.
// It stops future deliveries but does not wait for one already in
// flight; callers needing strict suppression must gate the callback
// themselves.
type CancelFunc func()

// Store is a path-addressed document store with push-based change delivery.
type Store interface {
	// Get reads a single document. Returns ErrNotFound if absent.
	Get(ctx context.Context, path string) (Value, error)

	// Push appends a new keyed child under a collection path and returns
	// the generated key.
	Push(ctx context.Context, path string, doc Value) (string, error)

	// Update merges fields into the document at path, creating it if needed.
	Update(ctx context.Context, path string, fields Value) error

	// Subscribe registers fn for snapshots of path. fn is invoked once with
	// the current state and again after every change under path. Delivery
	// happens on a dedicated goroutine per subscription; intermediate
	// snapshots may be coalesced, the latest is always delivered.
	Subscribe(path string, fn SnapshotFunc) CancelFunc

	// Close releases the store and stops all subscriptions.
	Close() error
}

// Join builds a document path from a collection and a key.
func Join(collection, key string) string {
	return collection + "/" + key
}

// Split separates a document path into its collection and key. The key is
// empty for collection paths.
func Split(path string) (collection, key string) {
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return path, ""
	}
	return path[:i], path[i+1:]
}

// Clone returns a deep-enough copy of v for handing across goroutines.
// Field values are shared; the chat core never mutates them in place.
func Clone(v Value) Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
