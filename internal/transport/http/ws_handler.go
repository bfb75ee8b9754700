package http

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/chat"
	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/view"
)

// WSHandler serves the live room view: one chat.Service per connection,
// room and message snapshots streamed as JSON frames, inbound send frames
// written back through the service.
type WSHandler struct {
	store     rtdb.Store
	projector *view.Projector
	log       *zerolog.Logger
}

// Serve upgrades the connection and streams the room view until the
// client disconnects.
// GET /ws/rooms/:id
func (h *WSHandler) Serve(c *gin.Context) {
	roomID := c.Param("id")

	userID, ok := currentUserID(c)
	if !ok {
		h.log.Error().Msg("user id not found in context")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	connID := uuid.NewString()
	logger := h.log.With().Str("conn_id", connID).Str("room", roomID).Logger()

	svc := chat.NewService(h.store, h.projector, &logger)
	defer svc.Close()

	events := make(chan Outbound, 32)
	events <- Outbound{Type: "hello", User: userID}

	svc.SubscribeRoom(roomID, func(room chat.Room) {
		offer(events, Outbound{Type: "room", Room: &room}, &logger)
	})
	svc.SubscribeMessages(roomID, func(messages []view.DisplayMessage) {
		offer(events, Outbound{Type: "messages", Messages: messages}, &logger)
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, svc, roomID, userID, events, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, events, &logger)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, svc *chat.Service, roomID, userID string, events chan<- Outbound, logger *zerolog.Logger) error {
	for {
		var inbound Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case "send":
			if strings.TrimSpace(inbound.Content) == "" {
				offer(events, Outbound{Type: "error", Error: "content must not be empty"}, logger)
				continue
			}
			if err := svc.Send(ctx, roomID, userID, inbound.Content); err != nil {
				logger.Error().Err(err).Msg("ws send failed")
				offer(events, Outbound{Type: "error", Error: "failed to send message"}, logger)
			}
		default:
			offer(events, Outbound{Type: "error", Error: "unknown frame type"}, logger)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan Outbound, logger *zerolog.Logger) error {
	for {
		select {
		case out := <-events:
			if err := wsjson.Write(ctx, conn, out); err != nil {
				logger.Error().Err(err).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// offer enqueues a frame, dropping it if the client cannot keep up. The
// next snapshot supersedes a dropped one anyway.
func offer(events chan<- Outbound, out Outbound, logger *zerolog.Logger) {
	select {
	case events <- out:
	default:
		logger.Debug().Str("type", out.Type).Msg("dropping frame for slow consumer")
	}
}
