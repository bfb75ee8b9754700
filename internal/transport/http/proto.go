package http

import (
	"github.com/vovakirdan/roomview/internal/chat"
	"github.com/vovakirdan/roomview/internal/view"
)

// Outbound is a frame pushed to a live-view WebSocket client. Messages
// carries no omitempty: an empty projection is wired as "messages":[],
// never as an absent field, matching the projector's empty-slice contract.
type Outbound struct {
	Type     string                `json:"type"` // hello | room | messages | error
	User     string                `json:"user,omitempty"`
	Room     *chat.Room            `json:"room,omitempty"`
	Messages []view.DisplayMessage `json:"messages"`
	Error    string                `json:"error,omitempty"`
}

// Inbound is a frame received from a live-view WebSocket client.
type Inbound struct {
	Type    string `json:"type"` // send
	Content string `json:"content,omitempty"`
}
