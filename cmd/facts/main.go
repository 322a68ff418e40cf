// Command facts manages fact profiles in the SQL store used by autofill.
//
// Usage:
//
//	facts --store-kind sqlite --store-dsn "file:facts.db" import --profile work constants.json extra.yaml
//	facts --store-kind sqlite --store-dsn "file:facts.db" list --profile work
//	facts --store-kind postgres --store-dsn "$PG_DSN" profiles
//
// The store flags may also come from AUTOFILL_STORE_KIND, AUTOFILL_STORE_DSN
// and AUTOFILL_STORE_TABLE.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"autofill/internal/config"
	"autofill/internal/facts"
	"autofill/internal/facts/storage"
	_ "autofill/internal/facts/storage/all"
	"autofill/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `usage: facts [flags] <import|list|profiles> [args]

  import FILE...   merge fact files (json, yaml, csv) into --profile
  list             print --profile as JSON
  profiles         print stored profile names, one per line
`

// run returns 0 on success, 2 for usage/config errors and 1 for store
// failures.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("facts", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(true)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if !cfg.StoreEnabled() {
		fmt.Fprintln(stderr, "--store-kind and --store-dsn are required")
		return 2
	}

	log := logging.New(cfg.LogLevel, stderr)

	st, err := storage.New(ctx, storage.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN, Table: cfg.Store.Table})
	if err != nil {
		log.Error("open store", "kind", cfg.Store.Kind, "err", err)
		return 1
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("ensure schema", "err", err)
		return 1
	}

	profile := storage.ProfileOrDefault(cfg.Store.Profile)

	switch cmd := rest[0]; cmd {
	case "import":
		files := rest[1:]
		if len(files) == 0 {
			fmt.Fprintln(stderr, "import needs at least one file")
			return 2
		}
		known, err := facts.Gather(ctx, files, nil, profile)
		if err != nil {
			log.Error("read facts", "err", err)
			return 1
		}
		n, err := st.Save(ctx, profile, known)
		if err != nil {
			log.Error("save facts", "profile", profile, "err", err)
			return 1
		}
		log.Info("facts imported", "profile", profile, "files", len(files), "rows", n)
		return 0

	case "list":
		known, err := st.Load(ctx, profile)
		if err != nil {
			log.Error("load facts", "profile", profile, "err", err)
			return 1
		}
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(known); err != nil {
			log.Error("encode json", "err", err)
			return 1
		}
		return 0

	case "profiles":
		names, err := st.Profiles(ctx)
		if err != nil {
			log.Error("list profiles", "err", err)
			return 1
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return 0

	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}
}
