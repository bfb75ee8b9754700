// Package http is the thin presentation gateway over the chat core:
// REST endpoints for one-shot reads and sends, a WebSocket endpoint for
// the live room view.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/auth"
	"github.com/vovakirdan/roomview/internal/chat"
	"github.com/vovakirdan/roomview/internal/config"
	"github.com/vovakirdan/roomview/internal/directory"
	"github.com/vovakirdan/roomview/internal/rtdb"
	"github.com/vovakirdan/roomview/internal/view"
)

// ErrorResponse is the JSON body for error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the gateway HTTP server.
func NewServer(store rtdb.Store, resolver *directory.Resolver, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	jwtCfg := &auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}

	projector := view.NewProjector(resolver)

	// Shared service for one-shot REST sends. Live views get their own
	// service per WebSocket connection.
	sender := chat.NewService(store, projector, logger)

	handlers := &RoomHandlers{
		store:     store,
		projector: projector,
		sender:    sender,
		log:       logger,
	}
	ws := &WSHandler{
		store:     store,
		projector: projector,
		log:       logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api")
	api.Use(AuthMiddleware(jwtCfg, logger))
	{
		api.GET("/rooms/:id", handlers.GetRoom)
		api.GET("/rooms/:id/messages", handlers.ListMessages)
		api.POST("/rooms/:id/messages", handlers.SendMessage)
	}

	wsGroup := router.Group("/ws")
	wsGroup.Use(AuthMiddleware(jwtCfg, logger))
	{
		wsGroup.GET("/rooms/:id", ws.Serve)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
