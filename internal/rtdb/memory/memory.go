// Package memory provides an in-process rtdb.Store used by tests and
// single-node runs. Snapshots fan out to subscribers through buffered
// channels; a slow subscriber sees the latest snapshot, not every
// intermediate one.
package memory

import (
	"context"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/vovakirdan/roomview/internal/rtdb"
)

// Store keeps documents in maps guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	docs   map[string]rtdb.Value // full document path -> fields
	order  map[string][]string   // collection path -> keys in insertion order
	subs   map[string][]*subscription
	closed bool
}

type subscription struct {
	path string
	fn   rtdb.SnapshotFunc
	ch   chan rtdb.Snapshot
	stop chan struct{}
	once sync.Once
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		docs:  make(map[string]rtdb.Value),
		order: make(map[string][]string),
		subs:  make(map[string][]*subscription),
	}
}

// Get reads a single document.
func (s *Store) Get(_ context.Context, path string) (rtdb.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, rtdb.ErrNotFound
	}
	return rtdb.Clone(doc), nil
}

// Push appends a keyed child under the collection path. Keys are ksuids,
// so lexicographic key order matches creation order.
func (s *Store) Push(_ context.Context, path string, doc rtdb.Value) (string, error) {
	key := ksuid.New().String()

	s.mu.Lock()
	s.docs[rtdb.Join(path, key)] = rtdb.Clone(doc)
	s.order[path] = append(s.order[path], key)
	s.notifyLocked(path)
	s.mu.Unlock()

	return key, nil
}

// Update merges fields into the document at path, creating it if needed.
func (s *Store) Update(_ context.Context, path string, fields rtdb.Value) error {
	coll, key := rtdb.Split(path)

	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		doc = make(rtdb.Value, len(fields))
		s.docs[path] = doc
		if key != "" {
			s.order[coll] = append(s.order[coll], key)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	s.notifyLocked(path)
	if key != "" {
		s.notifyLocked(coll)
	}
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn for path and immediately queues the current state.
func (s *Store) Subscribe(path string, fn rtdb.SnapshotFunc) rtdb.CancelFunc {
	sub := &subscription{
		path: path,
		fn:   fn,
		ch:   make(chan rtdb.Snapshot, 1),
		stop: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.subs[path] = append(s.subs[path], sub)
	sub.offer(s.snapshotLocked(path))
	s.mu.Unlock()

	go sub.run()

	return func() { s.unsubscribe(sub) }
}

// Close stops all subscriptions. Documents stay readable until the store
// is garbage collected; there is nothing external to release.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string][]*subscription)
	s.closed = true
	s.mu.Unlock()

	for _, list := range subs {
		for _, sub := range list {
			sub.close()
		}
	}
	return nil
}

func (s *Store) unsubscribe(sub *subscription) {
	s.mu.Lock()
	list := s.subs[sub.path]
	for i, candidate := range list {
		if candidate == sub {
			s.subs[sub.path] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	sub.close()
}

// notifyLocked queues a fresh snapshot of path for every subscriber of it.
func (s *Store) notifyLocked(path string) {
	if len(s.subs[path]) > 0 {
		snap := s.snapshotLocked(path)
		for _, sub := range s.subs[path] {
			sub.offer(snap)
		}
	}
}

func (s *Store) snapshotLocked(path string) rtdb.Snapshot {
	if _, key := rtdb.Split(path); key != "" {
		return rtdb.Snapshot{Doc: rtdb.Clone(s.docs[path])}
	}

	keys := s.order[path]
	children := make([]rtdb.Child, 0, len(keys))
	for _, k := range keys {
		children = append(children, rtdb.Child{
			Key: k,
			Doc: rtdb.Clone(s.docs[rtdb.Join(path, k)]),
		})
	}
	return rtdb.Snapshot{Children: children}
}

func (sub *subscription) run() {
	for {
		select {
		case snap := <-sub.ch:
			select {
			case <-sub.stop:
				return
			default:
			}
			sub.fn(snap)
		case <-sub.stop:
			return
		}
	}
}

// offer replaces any undelivered snapshot with the newer one.
func (sub *subscription) offer(snap rtdb.Snapshot) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

func (sub *subscription) close() {
	sub.once.Do(func() { close(sub.stop) })
}
