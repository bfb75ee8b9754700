// Package redis backs rtdb.Store with a Redis server. Documents live as
// JSON strings, collection order as a list of keys, and change delivery
// rides Redis pub/sub: writers publish the changed path, subscribers
// re-read the full snapshot on every notification.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"

	"github.com/vovakirdan/roomview/internal/rtdb"
)

const (
	docPrefix      = "rv:doc:"
	childrenPrefix = "rv:children:"
	channelPrefix  = "rv:ch:"
)

// Config holds connection settings for the Redis backend.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store implements rtdb.Store on top of a Redis client.
type Store struct {
	client *redis.Client

	mu     sync.Mutex
	cancel []context.CancelFunc
	closed bool
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Get reads a single document.
func (s *Store) Get(ctx context.Context, path string) (rtdb.Value, error) {
	data, err := s.client.Get(ctx, docPrefix+path).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, rtdb.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	var doc rtdb.Value
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Push appends a keyed child under the collection path.
func (s *Store) Push(ctx context.Context, path string, doc rtdb.Value) (string, error) {
	key := ksuid.New().String()

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s child: %w", path, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docPrefix+rtdb.Join(path, key), data, 0)
	pipe.RPush(ctx, childrenPrefix+path, key)
	pipe.Publish(ctx, channelPrefix+path, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("push to %s: %w", path, err)
	}

	return key, nil
}

// Update merges fields into the document at path, creating it if needed.
// The read-merge-write is not atomic across writers; concurrent partial
// updates to distinct fields may race. Acceptable for aggregate counters
// that are already only eventually consistent.
func (s *Store) Update(ctx context.Context, path string, fields rtdb.Value) error {
	doc, err := s.Get(ctx, path)
	created := errors.Is(err, rtdb.ErrNotFound)
	if err != nil && !created {
		return err
	}
	if doc == nil {
		doc = make(rtdb.Value, len(fields))
	}
	for k, v := range fields {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	coll, key := rtdb.Split(path)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docPrefix+path, data, 0)
	// A document created through Update must still show up in its
	// collection's child list, same as a pushed one.
	if created && key != "" {
		pipe.RPush(ctx, childrenPrefix+coll, key)
	}
	pipe.Publish(ctx, channelPrefix+path, key)
	if key != "" {
		pipe.Publish(ctx, channelPrefix+coll, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Subscribe listens on the path's pub/sub channel and re-reads the full
// snapshot after every notification, starting with the current state.
func (s *Store) Subscribe(path string, fn rtdb.SnapshotFunc) rtdb.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return func() {}
	}
	s.cancel = append(s.cancel, cancel)
	s.mu.Unlock()

	pubsub := s.client.Subscribe(ctx, channelPrefix+path)

	go func() {
		defer pubsub.Close()

		if snap, err := s.snapshot(ctx, path); err == nil {
			fn(snap)
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				snap, err := s.snapshot(ctx, path)
				if err != nil {
					continue
				}
				select {
				case <-ctx.Done():
					return
				default:
				}
				fn(snap)
			}
		}
	}()

	return rtdb.CancelFunc(cancel)
}

// Close stops all subscriptions and releases the client.
func (s *Store) Close() error {
	s.mu.Lock()
	cancels := s.cancel
	s.cancel = nil
	s.closed = true
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return s.client.Close()
}

func (s *Store) snapshot(ctx context.Context, path string) (rtdb.Snapshot, error) {
	if _, key := rtdb.Split(path); key != "" {
		doc, err := s.Get(ctx, path)
		if err != nil && !errors.Is(err, rtdb.ErrNotFound) {
			return rtdb.Snapshot{}, err
		}
		return rtdb.Snapshot{Doc: doc}, nil
	}

	keys, err := s.client.LRange(ctx, childrenPrefix+path, 0, -1).Result()
	if err != nil {
		return rtdb.Snapshot{}, fmt.Errorf("list %s children: %w", path, err)
	}

	children := make([]rtdb.Child, 0, len(keys))
	for _, key := range keys {
		doc, err := s.Get(ctx, rtdb.Join(path, key))
		if err != nil {
			if errors.Is(err, rtdb.ErrNotFound) {
				continue
			}
			return rtdb.Snapshot{}, err
		}
		children = append(children, rtdb.Child{Key: key, Doc: doc})
	}
	return rtdb.Snapshot{Children: children}, nil
}
