// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/briangreenhill/liveredirect/internal/app"
	"github.com/briangreenhill/liveredirect/internal/config"
	"github.com/briangreenhill/liveredirect/internal/http/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// Logger
	logger := app.NewLogger(cfg.Log, os.Stdout)
	zerolog.DefaultContextLogger = &logger

	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	waitForShutdown(srv, cfg.ShutdownTimeout, logger)
}

// newServer wires the resolver and its process-wide caches into the router
func newServer(cfg *config.Config, logger zerolog.Logger) (*http.Server, error) {
	resolver, err := app.NewResolver(cfg)
	if err != nil {
		return nil, err
	}

	s := routes.New(routes.ServerOptions{
		Resolver:   resolver,
		Logger:     logger,
		AdminToken: cfg.AdminToken,
	})
	if !cfg.HasAdminToken() {
		logger.Warn().Msg("ADMIN_TOKEN not set, cache administration is open")
	}

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func waitForShutdown(s *http.Server, timeout time.Duration, logger zerolog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
