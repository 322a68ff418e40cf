package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"autofill/internal/facts/storage"
	"autofill/internal/form"
)

// Store implements storage.Store for SQLite.
//
// SQLite allows one writer at a time, so the pool is capped at a single
// connection. This also keeps ":memory:" databases coherent across calls.
type Store struct {
	db    *sql.DB
	table string
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, table: quoteIdent(cfg.TableName())}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	profile    TEXT NOT NULL,
	fact_key   TEXT NOT NULL,
	fact_value TEXT NOT NULL,
	value_kind TEXT NOT NULL DEFAULT 'string',
	seq        INTEGER NOT NULL,
	PRIMARY KEY (profile, fact_key)
)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, profile string) (*form.ValueMap, error) {
	q := fmt.Sprintf(`SELECT fact_key, fact_value, value_kind FROM %s WHERE profile = ? ORDER BY seq`, s.table)
	rows, err := s.db.QueryContext(ctx, q, storage.ProfileOrDefault(profile))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := form.NewValueMap()
	for rows.Next() {
		var k, v, kind string
		if err := rows.Scan(&k, &v, &kind); err != nil {
			return nil, err
		}
		out.Set(k, storage.DecodeValue(v, kind))
	}
	return out, rows.Err()
}

// Save upserts in one transaction. A new key takes the next sequence number
// of its profile; ON CONFLICT leaves seq alone for existing keys.
func (s *Store) Save(ctx context.Context, profile string, m *form.ValueMap) (int64, error) {
	if m.Len() == 0 {
		return 0, nil
	}
	profile = storage.ProfileOrDefault(profile)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf(`INSERT INTO %[1]s (profile, fact_key, fact_value, value_kind, seq)
VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %[1]s WHERE profile = ?))
ON CONFLICT (profile, fact_key) DO UPDATE SET fact_value = excluded.fact_value, value_kind = excluded.value_kind`, s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		text, kind := storage.EncodeValue(v)
		if _, err := stmt.ExecContext(ctx, profile, k, text, kind, profile); err != nil {
			return n, fmt.Errorf("upsert %q: %w", k, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT profile FROM %s ORDER BY profile`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// quoteIdent quotes each dot-separated part of a table name.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
