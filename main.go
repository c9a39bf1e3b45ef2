package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/briangreenhill/liveredirect/internal/app"
	"github.com/briangreenhill/liveredirect/internal/candidate"
	"github.com/briangreenhill/liveredirect/internal/config"
)

const version = "liveredirect v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runCLI(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("liveredirect")
	}
}

func runCLI(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errors.New("no command given")
	}

	switch args[0] {
	case "help", "--help", "-h":
		printUsage(out)
	case "version", "--version", "-v":
		fmt.Fprintln(out, version)
	case "resolve", "-r":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return errors.New("resolve needs a query, e.g. 'v=<id>&c=@handle'")
		}
		return runResolve(ctx, args[1], out)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: liveredirect <command>")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  resolve <query>     Resolve a query once and print the manifest URL")
	fmt.Fprintln(out, "                      e.g. 'v=<id>&c=@handle&x=https://cdn/live.m3u8'")
	fmt.Fprintln(out, "  version             Print the version")
	fmt.Fprintln(out, "  help                Show this help message")
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  UPSTREAM_BASE_URL   Site handles are resolved against (default https://www.youtube.com)")
	fmt.Fprintln(out, "  HEADER_PARAM        Reserved header instruction parameter (default _headers)")
	fmt.Fprintln(out, "  LOG_LEVEL           Log level on stderr (default info)")
}

// runResolve resolves one query the same way the server's redirect does
func runResolve(ctx context.Context, query string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Log, os.Stderr)
	ctx = logger.WithContext(ctx)

	resolver, err := app.NewResolver(cfg)
	if err != nil {
		return err
	}

	manifest, err := resolver.Resolve(ctx, candidate.Parse(query))
	if err != nil {
		return fmt.Errorf("resolve %q: %w", query, err)
	}
	fmt.Fprintln(out, manifest)
	return nil
}
