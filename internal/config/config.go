// Package config loads autofill settings from flags, AUTOFILL_* environment
// variables, an optional config file and an optional .env file.
//
// Precedence, highest first: explicitly set flags, environment (including
// values loaded from .env), config file, defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "AUTOFILL"

	DefaultLogLevel     = "info"
	DefaultTriggerToken = "##"
	DefaultThreshold    = 0.5
	DefaultScope        = "form"
	DefaultTimeout      = 30 * time.Second
	DefaultEnvFile      = ".env"
	DefaultTable        = "autofill_facts"
	DefaultProfile      = "default"

	MetricsNone        = "none"
	MetricsDatadog     = "datadog"
	MetricsPushgateway = "pushgateway"
)

// StoreKinds lists the fact store backends a config may name.
var StoreKinds = []string{"sqlite", "postgres", "mssql"}

// Store selects a SQL-backed fact store. An empty Kind means no store.
type Store struct {
	Kind    string
	DSN     string
	Table   string
	Profile string
}

type Metrics struct {
	Backend        string
	PushgatewayURL string
	Job            string
	Tags           string // comma separated, datadog only
}

// Job describes the posting a form belongs to. Remote resolvers receive it.
type Job struct {
	Title   string
	Company string
	URL     string
}

type MCP struct {
	Name    string
	Version string
}

// Config holds everything the autofill commands share.
type Config struct {
	LogLevel       string
	TriggerToken   string
	MatchThreshold float64
	Negation       bool
	Scope          string
	FactsFiles     []string
	Store          Store
	Metrics        Metrics
	RemoteURL      string
	Job            Job
	Timeout        time.Duration
	MCP            MCP
	ConfigFile     string
	EnvFile        string
}

// DefaultConfig returns the defaults every source is layered over.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		TriggerToken:   DefaultTriggerToken,
		MatchThreshold: DefaultThreshold,
		Scope:          DefaultScope,
		Store:          Store{Table: DefaultTable, Profile: DefaultProfile},
		Metrics:        Metrics{Backend: MetricsNone, PushgatewayURL: "http://localhost:9091", Job: "autofill"},
		Timeout:        DefaultTimeout,
		MCP:            MCP{Name: "autofill", Version: "1.0.0"},
		EnvFile:        DefaultEnvFile,
	}
}

// flag name -> viper key
var bindings = map[string]string{
	"log-level":       "log-level",
	"trigger-token":   "trigger-token",
	"threshold":       "threshold",
	"negation":        "negation",
	"scope":           "scope",
	"facts":           "facts",
	"store-kind":      "store.kind",
	"store-dsn":       "store.dsn",
	"store-table":     "store.table",
	"profile":         "store.profile",
	"metrics-backend": "metrics.backend",
	"pushgateway-url": "metrics.pushgateway-url",
	"metrics-job":     "metrics.job",
	"metrics-tags":    "metrics.tags",
	"remote-url":      "remote-url",
	"job-title":       "job.title",
	"job-company":     "job.company",
	"job-url":         "job.url",
	"timeout":         "timeout",
	"mcp-name":        "mcp.name",
	"mcp-version":     "mcp.version",
}

// RegisterFlags defines the shared flags on fs. Commands add their own
// flags to the same set before calling Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", "", "Config file (yaml, json or toml)")
	fs.String("env-file", d.EnvFile, "Dotenv file loaded into the environment when present")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("trigger-token", d.TriggerToken, "Token marking fields for a resolver")
	fs.Float64("threshold", d.MatchThreshold, "Fuzzy match threshold in (0,1)")
	fs.Bool("negation", false, "Flip yes/no facts for fields with a negated label")
	fs.String("scope", d.Scope, "CSS selector of the form scope")
	fs.StringSlice("facts", nil, "Fact files (json, yaml, csv); later files win")
	fs.String("store-kind", "", "Fact store backend (sqlite, postgres, mssql)")
	fs.String("store-dsn", "", "Fact store DSN")
	fs.String("store-table", d.Store.Table, "Fact store table")
	fs.String("profile", d.Store.Profile, "Fact store profile")
	fs.String("metrics-backend", d.Metrics.Backend, "Metrics backend (none, datadog, pushgateway)")
	fs.String("pushgateway-url", d.Metrics.PushgatewayURL, "Pushgateway base URL")
	fs.String("metrics-job", d.Metrics.Job, "Metrics job name")
	fs.String("metrics-tags", "", "Extra datadog tags, comma separated")
	fs.String("remote-url", "", "Remote resolver endpoint")
	fs.String("job-title", "", "Job title sent to the remote resolver")
	fs.String("job-company", "", "Company sent to the remote resolver")
	fs.String("job-url", "", "Job posting URL sent to the remote resolver")
	fs.Duration("timeout", d.Timeout, "Timeout for network operations")
	fs.String("mcp-name", d.MCP.Name, "MCP server name")
	fs.String("mcp-version", d.MCP.Version, "MCP server version")
}

// Load parses args into fs (which must have had RegisterFlags called on
// it), layers the sources and validates the result.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	for name, key := range bindings {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfgFile, _ := fs.GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg := fromViper(v)
	cfg.ConfigFile = cfgFile
	cfg.EnvFile = envFile

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads path without overriding variables already set. A
// missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("trigger-token", d.TriggerToken)
	v.SetDefault("threshold", d.MatchThreshold)
	v.SetDefault("scope", d.Scope)
	v.SetDefault("store.table", d.Store.Table)
	v.SetDefault("store.profile", d.Store.Profile)
	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.pushgateway-url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.job", d.Metrics.Job)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("mcp.name", d.MCP.Name)
	v.SetDefault("mcp.version", d.MCP.Version)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("log-level"))),
		TriggerToken:   v.GetString("trigger-token"),
		MatchThreshold: v.GetFloat64("threshold"),
		Negation:       v.GetBool("negation"),
		Scope:          strings.TrimSpace(v.GetString("scope")),
		FactsFiles:     splitList(v.GetStringSlice("facts")),
		Store: Store{
			Kind:    strings.ToLower(strings.TrimSpace(v.GetString("store.kind"))),
			DSN:     v.GetString("store.dsn"),
			Table:   strings.TrimSpace(v.GetString("store.table")),
			Profile: strings.TrimSpace(v.GetString("store.profile")),
		},
		Metrics: Metrics{
			Backend:        strings.ToLower(strings.TrimSpace(v.GetString("metrics.backend"))),
			PushgatewayURL: strings.TrimSpace(v.GetString("metrics.pushgateway-url")),
			Job:            strings.TrimSpace(v.GetString("metrics.job")),
			Tags:           v.GetString("metrics.tags"),
		},
		RemoteURL: strings.TrimSpace(v.GetString("remote-url")),
		Job: Job{
			Title:   v.GetString("job.title"),
			Company: v.GetString("job.company"),
			URL:     v.GetString("job.url"),
		},
		Timeout: v.GetDuration("timeout"),
		MCP: MCP{
			Name:    v.GetString("mcp.name"),
			Version: v.GetString("mcp.version"),
		},
	}
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.TriggerToken == "" {
		return errors.New("trigger token cannot be empty")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", c.MatchThreshold)
	}
	if c.Scope == "" {
		return errors.New("scope cannot be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if c.Store.Kind != "" {
		if !contains(StoreKinds, c.Store.Kind) {
			return fmt.Errorf("unknown store kind %q (must be one of: %s)", c.Store.Kind, strings.Join(StoreKinds, ", "))
		}
		if c.Store.DSN == "" {
			return fmt.Errorf("store %s requires a DSN", c.Store.Kind)
		}
	}

	switch c.Metrics.Backend {
	case MetricsNone, MetricsDatadog:
	case MetricsPushgateway:
		if err := checkHTTPURL(c.Metrics.PushgatewayURL); err != nil {
			return fmt.Errorf("pushgateway url: %w", err)
		}
	default:
		return fmt.Errorf("unknown metrics backend %q (must be one of: none, datadog, pushgateway)", c.Metrics.Backend)
	}

	if c.RemoteURL != "" {
		if err := checkHTTPURL(c.RemoteURL); err != nil {
			return fmt.Errorf("remote url: %w", err)
		}
	}
	return nil
}

// StoreEnabled reports whether a fact store is configured.
func (c *Config) StoreEnabled() bool { return c.Store.Kind != "" }

func (c *Config) IsDebug() bool { return c.LogLevel == "debug" }

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) url", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
