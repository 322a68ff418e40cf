// Package storage persists fact sets in SQL databases. Backends register
// themselves by kind from init(); import facts/storage/all to get every one.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"autofill/internal/form"
)

// DefaultTable holds facts unless Config.Table says otherwise.
const DefaultTable = "autofill_facts"

// DefaultProfile names the fact set used when none is given.
const DefaultProfile = "default"

// Config selects and configures a backend.
//
// Kind must match a registered backend ("sqlite", "postgres", "mssql").
// DSN is passed through to the driver unchanged.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// TableName returns the configured table or DefaultTable.
func (c Config) TableName() string {
	if strings.TrimSpace(c.Table) == "" {
		return DefaultTable
	}
	return c.Table
}

// Store keeps named fact sets (profiles). Every row holds one key, its value
// as text, the value kind and an insertion sequence; Load returns keys in
// sequence order so matching ties resolve the same way as with the file the
// facts came from.
type Store interface {
	// EnsureSchema creates the fact table when missing.
	EnsureSchema(ctx context.Context) error
	// Load returns the facts of profile in insertion order. An unknown
	// profile yields an empty map.
	Load(ctx context.Context, profile string) (*form.ValueMap, error)
	// Save upserts every entry of m into profile. Existing keys keep their
	// sequence; new keys are appended. It returns the number of rows written.
	Save(ctx context.Context, profile string, m *form.ValueMap) (int64, error)
	// Profiles lists the stored profile names, sorted.
	Profiles(ctx context.Context) ([]string, error)
	// Close releases backend resources. Call once.
	Close()
}

// Factory builds a Store for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a backend under kind. It panics on an empty kind, a nil
// factory or a duplicate registration.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens the backend selected by cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}
	if err := ValidIdent(cfg.TableName()); err != nil {
		return nil, err
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdent accepts plain or schema-qualified table names. Table names are
// spliced into SQL text, so nothing else is allowed.
func ValidIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("storage: invalid table name %q", name)
	}
	return nil
}

// Value kinds stored alongside each value.
const (
	KindString = "string"
	KindBool   = "bool"
)

// EncodeValue turns v into its stored text and kind.
func EncodeValue(v form.Value) (text, kind string) {
	if v.IsBool() {
		return v.String(), KindBool
	}
	return v.String(), KindString
}

// DecodeValue rebuilds a value from its stored text and kind.
func DecodeValue(text, kind string) form.Value {
	if kind == KindBool {
		return form.BoolValue(text == "true")
	}
	return form.StringValue(text)
}

// ProfileOrDefault maps an empty profile name to DefaultProfile.
func ProfileOrDefault(p string) string {
	if strings.TrimSpace(p) == "" {
		return DefaultProfile
	}
	return p
}
