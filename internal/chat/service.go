// Package chat orchestrates the per-room message view: it subscribes to
// room metadata and the global messages collection, projects snapshots
// into display records, and writes new messages back to the store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/timeformat"
	"github.com/vovakirdan/roomview/internal/view"
)

const (
	roomsPath    = "Rooms"
	messagesPath = "Messages"
)

// RoomFunc receives the room document on every snapshot. A room that does
// not exist yet is delivered with only its ID set.
type RoomFunc func(Room)

// MessagesFunc receives the projected message list on every snapshot.
type MessagesFunc func([]view.DisplayMessage)

// Service is the room message view for one consumer. It holds at most one
// room subscription and one messages subscription; resubscribing with a
// different room id replaces the previous subscription and suppresses any
// late delivery from it.
type Service struct {
	store     rtdb.Store
	projector *view.Projector
	now       func() time.Time
	log       *zerolog.Logger

	mu         sync.Mutex
	roomSub    *subscription
	msgSub     *subscription
	cachedRoom *Room // last snapshot seen by the room subscription
}

// subscription pairs a store cancel with a stale flag. retire marks it
// stale under the delivery mutex, so once retire returns no further
// callback from this subscription can run.
type subscription struct {
	mu     sync.Mutex
	stale  bool
	cancel rtdb.CancelFunc
}

func (s *subscription) deliver(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return
	}
	fn()
}

func (s *subscription) retire() {
	s.mu.Lock()
	s.stale = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// attach stores the cancel under the delivery mutex. If the subscription
// was retired before the store subscribe returned, the cancel runs here
// instead of leaking a live store-side subscription.
func (s *subscription) attach(cancel rtdb.CancelFunc) {
	s.mu.Lock()
	if s.stale {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()
}

// NewService builds a service over the given store and projector.
func NewService(store rtdb.Store, projector *view.Projector, logger *zerolog.Logger) *Service {
	return &Service{
		store:     store,
		projector: projector,
		now:       time.Now,
		log:       logger,
	}
}

// SubscribeRoom subscribes fn to the room document at Rooms/<roomID>,
// replacing any previous room subscription.
func (s *Service) SubscribeRoom(roomID string, fn RoomFunc) {
	sub := &subscription{}

	s.mu.Lock()
	old := s.roomSub
	s.roomSub = sub
	s.cachedRoom = nil
	s.mu.Unlock()

	if old != nil {
		old.retire()
	}

	sub.attach(s.store.Subscribe(rtdb.Join(roomsPath, roomID), func(snap rtdb.Snapshot) {
		sub.deliver(func() {
			room := RoomFromDoc(roomID, snap.Doc)

			s.mu.Lock()
			if s.roomSub == sub {
				cached := room
				s.cachedRoom = &cached
			}
			s.mu.Unlock()

			fn(room)
		})
	}))
}

// SubscribeMessages subscribes fn to the projected message list of roomID.
// The store schema keeps a single global messages collection, so the
// subscription covers all messages and filtering happens in the projector.
// Replaces any previous messages subscription.
func (s *Service) SubscribeMessages(roomID string, fn MessagesFunc) {
	sub := &subscription{}

	s.mu.Lock()
	old := s.msgSub
	s.msgSub = sub
	s.mu.Unlock()

	if old != nil {
		old.retire()
	}

	sub.attach(s.store.Subscribe(messagesPath, func(snap rtdb.Snapshot) {
		sub.deliver(func() {
			fn(s.projector.Project(context.Background(), snap.Children, roomID))
		})
	}))
}

// Send writes a new message and bumps the room's aggregate fields. Two
// writes with no transaction between them: a failure after the push
// leaves the aggregates stale, which readers must tolerate. Content is
// assumed non-empty; callers validate before sending.
func (s *Service) Send(ctx context.Context, roomID, senderID, content string) error {
	ts := timeformat.Format(s.now())

	key, err := s.store.Push(ctx, messagesPath, rtdb.Value{
		"content":   content,
		"sentBy":    senderID,
		"room":      roomID,
		"timestamp": ts,
	})
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}

	count, err := s.lastKnownCount(ctx, roomID)
	if err != nil {
		return fmt.Errorf("read room %s: %w", roomID, err)
	}

	err = s.store.Update(ctx, rtdb.Join(roomsPath, roomID), rtdb.Value{
		"totalMessages": count + 1,
		"latestMessage": ts,
	})
	if err != nil {
		// The message itself is already stored; only the aggregates lag.
		return fmt.Errorf("update room %s aggregates: %w", roomID, err)
	}

	s.log.Debug().
		Str("room", roomID).
		Str("sender", senderID).
		Str("key", key).
		Msg("message sent")

	return nil
}

// Close tears down all subscriptions.
func (s *Service) Close() {
	s.mu.Lock()
	roomSub, msgSub := s.roomSub, s.msgSub
	s.roomSub, s.msgSub = nil, nil
	s.mu.Unlock()

	if roomSub != nil {
		roomSub.retire()
	}
	if msgSub != nil {
		msgSub.retire()
	}
}

// lastKnownCount prefers the room snapshot the subscription has already
// seen and falls back to a one-shot read. A missing room counts as zero.
func (s *Service) lastKnownCount(ctx context.Context, roomID string) (int64, error) {
	s.mu.Lock()
	cached := s.cachedRoom
	s.mu.Unlock()

	if cached != nil && cached.ID == roomID {
		return cached.TotalMessages, nil
	}

	doc, err := s.store.Get(ctx, rtdb.Join(roomsPath, roomID))
	if err != nil {
		if errors.Is(err, rtdb.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return toInt64(doc["totalMessages"]), nil
}
