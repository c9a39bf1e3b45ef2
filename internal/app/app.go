// Package app assembles the resolver and logger from configuration so the
// server and the command line share one wiring.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/liveredirect/cache"
	"github.com/briangreenhill/liveredirect/internal/config"
	"github.com/briangreenhill/liveredirect/internal/resolve"
	"github.com/briangreenhill/liveredirect/internal/stream"
	"github.com/briangreenhill/liveredirect/youtube"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewResolver builds the stores once and hands them to a single resolver
func NewResolver(cfg *config.Config) (*resolve.Resolver, error) {
	streams := cache.NewTTLStore[resolve.Result](cfg.Cache.StreamTTL)
	lookups, err := cache.NewLRUStore[resolve.Result](cfg.Cache.LookupSize)
	if err != nil {
		return nil, fmt.Errorf("lookup cache: %w", err)
	}

	validator := stream.NewValidator(
		stream.WithHTTPClient(&http.Client{Timeout: cfg.Stream.ProbeTimeout}),
		stream.WithHeaderParam(cfg.Stream.HeaderParam),
	)
	upstream := youtube.New(
		youtube.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		youtube.WithBaseURL(cfg.Upstream.BaseURL),
	)

	return resolve.New(upstream, validator, streams, lookups, resolve.Options{
		LiveBaseURL:     upstream.BaseURL(),
		UpstreamTimeout: cfg.Upstream.Timeout,
	}), nil
}
