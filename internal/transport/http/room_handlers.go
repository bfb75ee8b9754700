package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/chat"
	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/view"
)

// snapshotTimeout bounds the one-shot collection read, which rides the
// subscription machinery (subscribe, take first snapshot, cancel).
const snapshotTimeout = 2 * time.Second

// RoomHandlers provides the REST endpoints of the gateway.
type RoomHandlers struct {
	store     rtdb.Store
	projector *view.Projector
	sender    *chat.Service
	log       *zerolog.Logger
}

// SendMessageRequest is the body for POST /api/rooms/:id/messages.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// GetRoom returns the room metadata document.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	doc, err := h.store.Get(c.Request.Context(), rtdb.Join("Rooms", roomID))
	if err != nil {
		if errors.Is(err, rtdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to read room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, chat.RoomFromDoc(roomID, doc))
}

// ListMessages returns the current projected message list of the room.
// GET /api/rooms/:id/messages
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	roomID := c.Param("id")

	children, err := currentChildren(h.store, "Messages")
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to snapshot messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.projector.Project(c.Request.Context(), children, roomID))
}

// SendMessage writes a new message as the authenticated user.
// POST /api/rooms/:id/messages
func (h *RoomHandlers) SendMessage(c *gin.Context) {
	roomID := c.Param("id")

	userID, ok := currentUserID(c)
	if !ok {
		h.log.Error().Msg("user id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content must not be empty"})
		return
	}

	if err := h.sender.Send(c.Request.Context(), roomID, userID, req.Content); err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to send message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

// currentChildren reads the current snapshot of a collection path.
func currentChildren(store rtdb.Store, path string) ([]rtdb.Child, error) {
	ch := make(chan []rtdb.Child, 1)
	cancel := store.Subscribe(path, func(snap rtdb.Snapshot) {
		select {
		case ch <- snap.Children:
		default:
		}
	})
	defer cancel()

	select {
	case children := <-ch:
		return children, nil
	case <-time.After(snapshotTimeout):
		return nil, errors.New("timed out waiting for snapshot")
	}
}
