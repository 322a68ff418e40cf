// Command autofill fills an HTML form from known facts, or from a resolver
// for fields marked with the trigger token, and prints the filled page.
//
// Usage (stdin, facts file):
//
//	cat apply.html | autofill --facts constants.json > filled.html
//
// Usage (fetch URL, facts from a store, ask a remote service for the rest):
//
//	autofill --url "https://jobs.example.com/apply" \
//	  --store-kind sqlite --store-dsn "file:facts.db" \
//	  --resolver remote --remote-url "http://localhost:8080/api/fill-llm"
//
// Usage (only fields whose value is "##", answered interactively):
//
//	autofill --in apply.html --marked --resolver prompt
//
// Inspect fields without filling:
//
//	autofill --in apply.html --extract
//	autofill --dir ./pages
//
// Debug (print the blocks a selector matches):
//
//	autofill --in apply.html --selector "form#apply" --text
//	autofill --in apply.html --selector "form#apply input" --controls
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"autofill/internal/autofill"
	"autofill/internal/config"
	"autofill/internal/facts"
	"autofill/internal/facts/storage"
	_ "autofill/internal/facts/storage/all"
	"autofill/internal/form"
	"autofill/internal/htmldoc"
	"autofill/internal/logging"
	"autofill/internal/metrics/backends"
	"autofill/internal/resolver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(
		ctx,
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run returns a Unix-style exit code:
//   - 0 for success, including "nothing to fill"
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := pflag.NewFlagSet("autofill", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)

	urlFlag := fs.String("url", "", "Fetch HTML from URL instead of stdin")
	inFlag := fs.String("in", "", "Read HTML from a file instead of stdin")
	dirFlag := fs.String("dir", "", "Print the fields of every HTML file in a directory as one JSON array")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches")
	listControls := fs.Bool("controls", false, "Debug: list the controls -selector matches with their current values")
	extractOnly := fs.Bool("extract", false, "Print field descriptors as JSON instead of filling")
	marked := fs.Bool("marked", false, "Fill only fields whose value is the trigger token")
	resolverFlag := fs.String("resolver", "none", "Resolver for marked or unmatched fields (none, prompt, remote)")
	outFlag := fs.String("out", "", "Write the filled HTML to this file instead of stdout")
	report := fs.Bool("report", false, "Print a JSON report instead of the filled HTML")
	snapshotFlag := fs.String("snapshot", "", "Write id -> value of filled text fields as JSON to this file")

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

	loader := htmldoc.NewLoader(httpClient, cfg.Timeout)
	src := htmldoc.Source{URL: *urlFlag, Path: *inFlag, Stdin: stdin}
	scope := htmldoc.WithScope(cfg.Scope)

	if *dirFlag != "" {
		n, err := htmldoc.StreamFields(stdout, *dirFlag, scope)
		if err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		log.Info("directory scanned", "dir", *dirFlag, "pages", n)
		return 0
	}

	doc, err := loader.Open(ctx, src, scope)
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	if *debugSelector != "" && *listControls {
		for _, c := range doc.Find(*debugSelector) {
			fmt.Fprintf(stdout, "%s\t%s\t%q\n", c.Selector(), form.KindOf(c), c.Value())
		}
		return 0
	}
	if *debugSelector != "" {
		n := doc.DebugPrintSelector(stdout, *debugSelector, *onlyText)
		log.Debug("selector matches", "selector", *debugSelector, "count", n)
		return 0
	}

	if *extractOnly {
		return printFields(doc, *marked, cfg.TriggerToken, stdout, stderr)
	}

	res, err := buildResolver(*resolverFlag, cfg, httpClient, src)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	opts := []autofill.Option{
		autofill.WithLogger(log),
		autofill.WithThreshold(cfg.MatchThreshold),
		autofill.WithTriggerToken(cfg.TriggerToken),
		autofill.WithFallback(res),
	}
	if cfg.Negation {
		opts = append(opts, autofill.WithNegation())
	}
	runner := autofill.New(opts...)

	var result autofill.Result
	if *marked {
		if res == nil {
			fmt.Fprintf(stderr, "--marked requires --resolver prompt or remote\n")
			return 2
		}
		result, err = runner.FillMarked(ctx, doc, res)
	} else {
		known, ferr := loadFacts(ctx, cfg, log)
		if ferr != nil {
			fmt.Fprintf(stderr, "load facts: %v\n", ferr)
			return 1
		}
		result, err = runner.FillFromFacts(ctx, doc, known)
	}

	switch {
	case errors.Is(err, autofill.ErrAllFieldsFilled), errors.Is(err, autofill.ErrNoMarkedFields):
		fmt.Fprintf(stderr, "%v\n", err)
	case err != nil:
		fmt.Fprintf(stderr, "autofill: %v\n", err)
		return 1
	}

	if *snapshotFlag != "" {
		if err := writeSnapshot(doc, *snapshotFlag); err != nil {
			fmt.Fprintf(stderr, "snapshot: %v\n", err)
			return 1
		}
	}

	if *report {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encode json: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeHTML(doc, *outFlag, stdout); err != nil {
		fmt.Fprintf(stderr, "write html: %v\n", err)
		return 1
	}
	return 0
}

func printFields(doc *htmldoc.Document, marked bool, token string, stdout, stderr io.Writer) int {
	var (
		ex  form.Extraction
		err error
	)
	if marked {
		ex, err = form.ScanMarked(doc, token)
	} else {
		ex, err = form.Extract(doc)
	}
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	fields := ex.Fields
	if fields == nil {
		fields = []form.FieldDescriptor{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		fmt.Fprintf(stderr, "encode json: %v\n", err)
		return 1
	}
	return 0
}

// buildResolver returns nil for "none".
func buildResolver(name string, cfg *config.Config, client *http.Client, src htmldoc.Source) (resolver.Resolver, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, errors.New("--resolver remote requires --remote-url")
		}
		job := resolver.JobContext{Title: cfg.Job.Title, Company: cfg.Job.Company, URL: cfg.Job.URL}
		if job.URL == "" {
			job.URL = src.URL
		}
		return resolver.NewRemote(cfg.RemoteURL, job, client, cfg.Timeout), nil
	case "prompt":
		if src.URL == "" && src.Path == "" {
			return nil, errors.New("--resolver prompt needs --url or --in; stdin is reserved for answers")
		}
		return resolver.NewPrompter(resolver.SurveyDriver()), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q (none, prompt, remote)", name)
	}
}

// loadFacts merges the configured store profile and fact files. With
// neither configured it falls back to facts.DefaultFile when present.
func loadFacts(ctx context.Context, cfg *config.Config, log *slog.Logger) (*form.ValueMap, error) {
	files := cfg.FactsFiles
	if len(files) == 0 && !cfg.StoreEnabled() {
		if _, err := os.Stat(facts.DefaultFile); err == nil {
			files = []string{facts.DefaultFile}
		} else {
			log.Warn("no facts configured", "default_file", facts.DefaultFile)
		}
	}

	var loader facts.ProfileLoader
	if cfg.StoreEnabled() {
		st, err := storage.New(ctx, storage.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN, Table: cfg.Store.Table})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Kind, err)
		}
		defer st.Close()
		loader = st
	}

	known, err := facts.Gather(ctx, files, loader, cfg.Store.Profile)
	if err != nil {
		return nil, err
	}
	log.Info("facts loaded", "count", known.Len(), "files", len(files), "store", cfg.Store.Kind)
	return known, nil
}

func writeSnapshot(doc *htmldoc.Document, path string) error {
	snap, err := autofill.Snapshot(doc)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o600)
}

func writeHTML(doc *htmldoc.Document, path string, stdout io.Writer) error {
	if path == "" {
		_, err := doc.WriteTo(stdout)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
