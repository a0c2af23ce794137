package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirecanvas-server/internal/config"
	"github.com/vovakirdan/wirecanvas-server/internal/core"
	"github.com/vovakirdan/wirecanvas-server/internal/metrics"
	transporthttp "github.com/vovakirdan/wirecanvas-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	metrics         *metrics.Metrics
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	m := metrics.New()
	hub := core.NewHub(core.HubOptions{
		Logger:        logger,
		Metrics:       m,
		StatsInterval: cfg.StatsInterval,
	})

	return &App{
		server:          transporthttp.NewServer(hub, m, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		metrics:         m,
		log:             logger,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.drain()
	return err
}

// drain waits for evicted clients to finish leaving their rooms.
func (a *App) drain() {
	done := make(chan struct{})
	go func() {
		a.hub.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.log.Info().Msg("all clients disconnected")
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Int("rooms", a.hub.Registry().Len()).Msg("clients still connected after shutdown timeout")
	}
}
