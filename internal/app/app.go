// Package app wires the configured backends into a running gateway.
package app

import (
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomview/internal/config"
	"github.com/vovakirdan/roomview/internal/directory"
	dirsqlite "github.com/vovakirdan/roomview/internal/directory/sqlite"
	"github.com/vovakirdan/roomview/internal/rtdb"
	rtdbmemory "github.com/vovakirdan/roomview/internal/rtdb/memory"
	rtdbredis "github.com/vovakirdan/roomview/internal/rtdb/redis"
	transporthttp "github.com/vovakirdan/roomview/internal/transport/http"
)

// App holds the assembled gateway and its backends.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           rtdb.Store
	closers         []io.Closer
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	app := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           store,
		log:             logger,
	}

	dir, err := app.newDirectory(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init directory: %w", err)
	}

	resolver := directory.NewResolver(dir, logger)
	app.server = transporthttp.NewServer(store, resolver, cfg, logger)

	return app, nil
}

func newStore(cfg *config.Config, logger *zerolog.Logger) (rtdb.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		logger.Info().Msg("using in-memory store")
		return rtdbmemory.New(), nil
	case "redis":
		logger.Info().Str("addr", cfg.Store.RedisAddr).Msg("using redis store")
		return rtdbredis.New(rtdbredis.Config{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *App) newDirectory(cfg *config.Config, logger *zerolog.Logger) (directory.Directory, error) {
	switch cfg.Directory.Driver {
	case "", "store":
		logger.Info().Msg("using store-backed user directory")
		return directory.NewStoreDirectory(a.store), nil
	case "sqlite":
		logger.Info().Str("path", cfg.Directory.SQLitePath).Msg("using sqlite user directory")
		dir, err := dirsqlite.New(cfg.Directory.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, dir)
		return dir, nil
	default:
		return nil, fmt.Errorf("unknown directory driver %q", cfg.Directory.Driver)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and any directory backends.
func (a *App) cleanup() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close directory backend")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
