package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"autofill/internal/facts/storage"
	"autofill/internal/form"
)

func init() {
	storage.Register("mssql", New)
}

// Store implements storage.Store for Microsoft SQL Server.
//
// SQL Server has no single-statement upsert that can also number new rows,
// so Save takes an UPDLOCK/HOLDLOCK read of the profile's highest sequence
// and then updates or inserts row by row inside that transaction.
type Store struct {
	db    dbConn
	table string
}

// New opens the "sqlserver" driver and checks connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	raw, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Store{db: &sqlDB{db: raw}, table: quoteIdent(cfg.TableName())}, nil
}

func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, profile string) (*form.ValueMap, error) {
	q := fmt.Sprintf(`SELECT fact_key, fact_value, value_kind FROM %s WHERE profile = @p1 ORDER BY seq`, s.table)
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

	var seq int64
	q := fmt.Sprintf(`SELECT ISNULL(MAX(seq), 0) FROM %s WITH (UPDLOCK, HOLDLOCK) WHERE profile = @p1`, s.table)
	if err := tx.QueryRowContext(ctx, q, profile).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	update := fmt.Sprintf(`UPDATE %s SET fact_value = @p1, value_kind = @p2 WHERE profile = @p3 AND fact_key = @p4`, s.table)
	insert := fmt.Sprintf(`INSERT INTO %s (profile, fact_key, fact_value, value_kind, seq) VALUES (@p1, @p2, @p3, @p4, @p5)`, s.table)

	var n int64
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		text, kind := storage.EncodeValue(v)

		res, err := tx.ExecContext(ctx, update, text, kind, profile, k)
		if err != nil {
			return 0, fmt.Errorf("update %q: %w", k, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n += affected
			continue
		}

		seq++
		if _, err := tx.ExecContext(ctx, insert, profile, k, text, kind, seq); err != nil {
			return 0, fmt.Errorf("insert %q: %w", k, err)
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

// createTableSQL is guarded by OBJECT_ID since SQL Server lacks
// CREATE TABLE IF NOT EXISTS.
func createTableSQL(table string) string {
	return fmt.Sprintf(`IF OBJECT_ID(N'%[2]s', N'U') IS NULL
CREATE TABLE %[1]s (
	profile    NVARCHAR(200)  NOT NULL,
	fact_key   NVARCHAR(400)  NOT NULL,
	fact_value NVARCHAR(MAX)  NOT NULL,
	value_kind NVARCHAR(16)   NOT NULL DEFAULT 'string',
	seq        BIGINT         NOT NULL,
	CONSTRAINT PK_%[3]s PRIMARY KEY (profile, fact_key)
)`, table, strings.ReplaceAll(table, "'", "''"), constraintSuffix(table))
}

func constraintSuffix(table string) string {
	r := strings.NewReplacer("[", "", "]", "", ".", "_")
	return r.Replace(table)
}

// quoteIdent brackets each dot-separated part of a table name.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}
