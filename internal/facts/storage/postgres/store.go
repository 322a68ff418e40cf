package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autofill/internal/facts/storage"
	"autofill/internal/form"
)

func init() {
	storage.Register("postgres", New)
}

// Store implements storage.Store for Postgres on a pgx pool.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// New creates a pool for cfg.DSN. Connections are established lazily.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, table: quoteIdent(cfg.TableName())}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, profile string) (*form.ValueMap, error) {
	q := fmt.Sprintf(`SELECT fact_key, fact_value, value_kind FROM %s WHERE profile = $1 ORDER BY seq`, s.table)
	rows, err := s.pool.Query(ctx, q, storage.ProfileOrDefault(profile))
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

// Save queues one upsert per entry in a single batch inside a transaction.
// A transaction-scoped advisory lock per profile serializes writers that
// compute the next sequence.
func (s *Store) Save(ctx context.Context, profile string, m *form.ValueMap) (int64, error) {
	if m.Len() == 0 {
		return 0, nil
	}
	profile = storage.ProfileOrDefault(profile)

	var n int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.table+"/"+profile); err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}

		batch := &pgx.Batch{}
		q := upsertSQL(s.table)
		keys := m.Keys()
		for _, k := range keys {
			v, _ := m.Get(k)
			text, kind := storage.EncodeValue(v)
			batch.Queue(q, profile, k, text, kind)
		}

		br := tx.SendBatch(ctx, batch)
		for _, k := range keys {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("upsert %q: %w", k, err)
			}
			n += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT profile FROM %s ORDER BY profile`, s.table)
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	profile    TEXT   NOT NULL,
	fact_key   TEXT   NOT NULL,
	fact_value TEXT   NOT NULL,
	value_kind TEXT   NOT NULL DEFAULT 'string',
	seq        BIGINT NOT NULL,
	PRIMARY KEY (profile, fact_key)
)`, table)
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %[1]s (profile, fact_key, fact_value, value_kind, seq)
VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %[1]s WHERE profile = $1))
ON CONFLICT (profile, fact_key) DO UPDATE SET fact_value = EXCLUDED.fact_value, value_kind = EXCLUDED.value_kind`, table)
}

// quoteIdent quotes each part of a possibly schema-qualified name.
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
