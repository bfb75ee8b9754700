// Package view turns raw message snapshots into display-ready records for
// a single room.
package view

import (
	"context"

	"github.com/vovakirdan/roomview/internal/directory"
	"github.com/vovakirdan/roomview/internal/rtdb"
)

// DisplayMessage is a derived record, recomputed on every snapshot and
// never persisted. SenderName falls back to the raw sender id when the
// directory lookup fails; SenderPhoto is absent in that case.
type DisplayMessage struct {
	Key         string `json:"key"`
	Room        string `json:"room"`
	Content     string `json:"content"`
	SentBy      string `json:"sentBy"`
	SenderName  string `json:"senderName"`
	SenderPhoto string `json:"senderPhoto,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// Projector filters and enriches raw message snapshots.
type Projector struct {
	resolver *directory.Resolver
}

// NewProjector builds a projector using the given sender resolver.
func NewProjector(resolver *directory.Resolver) *Projector {
	return &Projector{resolver: resolver}
}

// Project keeps the children whose room field matches roomID, resolves
// each sender, and returns display records in snapshot order. Senders are
// resolved one at a time so output order stays deterministic regardless
// of directory latency. Always returns a non-nil slice.
func (p *Projector) Project(ctx context.Context, children []rtdb.Child, roomID string) []DisplayMessage {
	out := make([]DisplayMessage, 0, len(children))

	for _, child := range children {
		msg := messageFromDoc(child.Key, child.Doc)
		if msg.Room != roomID {
			continue
		}

		sender := p.resolver.Resolve(ctx, msg.SentBy)
		msg.SenderName = sender.Name
		msg.SenderPhoto = sender.PhotoURL

		out = append(out, msg)
	}

	return out
}

func messageFromDoc(key string, doc rtdb.Value) DisplayMessage {
	msg := DisplayMessage{Key: key}
	if v, ok := doc["room"].(string); ok {
		msg.Room = v
	}
	if v, ok := doc["content"].(string); ok {
		msg.Content = v
	}
	if v, ok := doc["sentBy"].(string); ok {
		msg.SentBy = v
	}
	if v, ok := doc["timestamp"].(string); ok {
		msg.Timestamp = v
	}
	return msg
}
