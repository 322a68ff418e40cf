// Command autofill-mcp serves the form tools (extract, scan, match, fill)
// over MCP on stdin/stdout. Known facts are loaded once at startup from the
// configured fact files and store profile.
//
// Usage:
//
//	autofill-mcp --facts constants.json
//	AUTOFILL_STORE_KIND=postgres AUTOFILL_STORE_DSN=postgres://... autofill-mcp --profile work
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"autofill/internal/config"
	"autofill/internal/facts"
	"autofill/internal/facts/storage"
	_ "autofill/internal/facts/storage/all"
	"autofill/internal/form"
	"autofill/internal/logging"
	"autofill/internal/mcpserver"
	"autofill/internal/metrics/backends"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr, serveStdio))
}

func serveStdio(s *mcpserver.Server) error { return s.ServeStdio() }

// run returns 0 on a clean shutdown, 2 for configuration errors and 1 when
// facts cannot be loaded or serving fails. stdout belongs to the protocol,
// so all diagnostics go to stderr.
func run(ctx context.Context, args []string, stderr io.Writer, serve func(*mcpserver.Server) error) int {
	fs := pflag.NewFlagSet("autofill-mcp", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	log := logging.New(cfg.LogLevel, stderr)
	closeMetrics := backends.Install(ctx, cfg.Metrics, log)
	defer closeMetrics()

	known, err := loadFacts(ctx, cfg, log)
	if err != nil {
		log.Error("load facts", "err", err)
		return 1
	}

	srv, err := mcpserver.NewServer(cfg, known, log)
	if err != nil {
		log.Error("build server", "err", err)
		return 1
	}

	log.Info("serving mcp",
		"name", cfg.MCP.Name,
		"version", cfg.MCP.Version,
		"facts", known.Len(),
		"metrics", backends.Describe(cfg.Metrics),
	)
	if err := serve(srv); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("serve", "err", err)
		return 1
	}
	return 0
}

func loadFacts(ctx context.Context, cfg *config.Config, log *slog.Logger) (*form.ValueMap, error) {
	var loader facts.ProfileLoader
	if cfg.StoreEnabled() {
		st, err := storage.New(ctx, storage.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN, Table: cfg.Store.Table})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Kind, err)
		}
		defer st.Close()
		loader = st
	}
	known, err := facts.Gather(ctx, cfg.FactsFiles, loader, cfg.Store.Profile)
	if err != nil {
		return nil, err
	}
	log.Debug("facts gathered", "keys", known.Keys())
	return known, nil
}
