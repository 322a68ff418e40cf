package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"autofill/internal/facts/storage"
	"autofill/internal/form"
)

// TestSQL_QuotesSchemaQualifiedTable verifies generated statements quote
// each part of the table name and keep seq out of the conflict update.
func TestSQL_QuotesSchemaQualifiedTable(t *testing.T) {
	t.Parallel()

	table := quoteIdent("public.autofill_facts")
	if table != `"public"."autofill_facts"` {
		t.Fatalf("quoteIdent: got %s", table)
	}

	ddl := createTableSQL(table)
	if !strings.Contains(ddl, `CREATE TABLE IF NOT EXISTS "public"."autofill_facts"`) ||
		!strings.Contains(ddl, "PRIMARY KEY (profile, fact_key)") {
		t.Fatalf("unexpected ddl:\n%s", ddl)
	}

	up := upsertSQL(table)
	if !strings.Contains(up, "ON CONFLICT (profile, fact_key) DO UPDATE") {
		t.Fatalf("upsert must be idempotent on (profile, fact_key):\n%s", up)
	}
	if strings.Contains(up, "seq = EXCLUDED") {
		t.Fatalf("upsert must not rewrite seq:\n%s", up)
	}
}

// TestStore_Integration runs against a live database when
// AUTOFILL_TEST_POSTGRES_DSN is set.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("AUTOFILL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AUTOFILL_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	st, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn, Table: "autofill_facts_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(st.Close)

	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	profile := "it-" + t.Name()
	if _, err := st.Save(ctx, profile, form.ValueMapOf("b", "2", "a", true)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := st.Load(ctx, profile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if keys := out.Keys(); len(keys) != 2 || keys[0] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
