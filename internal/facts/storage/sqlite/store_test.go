package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"autofill/internal/facts/storage"
	"autofill/internal/form"
)

func openStore(t *testing.T) storage.Store {
	t.Helper()

	ctx := context.Background()
	st, err := storage.New(ctx, storage.Config{
		Kind: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "facts.db"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(st.Close)

	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Idempotent.
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema again: %v", err)
	}
	return st
}

// TestStore_RoundTripKeepsOrderAndKinds saves a profile and reads it back in
// insertion order, with bools restored.
func TestStore_RoundTripKeepsOrderAndKinds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)

	in := form.ValueMapOf("zeta", "z", "authorized", true, "alpha", "a", "sponsorship", false)
	n, err := st.Save(ctx, "", in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 4 {
		t.Fatalf("want 4 rows got %d", n)
	}

	out, err := st.Load(ctx, storage.DefaultProfile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"zeta", "authorized", "alpha", "sponsorship"}
	got := out.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys: want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys: want %v got %v", want, got)
		}
	}
	if v, _ := out.Get("authorized"); !v.True() {
		t.Fatalf("authorized should be bool true, got %#v", v)
	}
	if v, _ := out.Get("sponsorship"); !v.IsBool() || v.True() {
		t.Fatalf("sponsorship should be bool false, got %#v", v)
	}
}

// TestStore_UpsertKeepsSequence verifies updating a key keeps its position
// while new keys go to the end.
func TestStore_UpsertKeepsSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)

	if _, err := st.Save(ctx, "jane", form.ValueMapOf("a", "1", "b", "2")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := st.Save(ctx, "jane", form.ValueMapOf("c", "3", "a", "updated")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := st.Save(ctx, "other", form.ValueMapOf("x", "y")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := st.Load(ctx, "jane")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	keys := out.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("unexpected order: %v", keys)
	}
	if v, _ := out.Get("a"); v.String() != "updated" {
		t.Fatalf("a: got %q", v.String())
	}

	profiles, err := st.Profiles(ctx)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0] != "jane" || profiles[1] != "other" {
		t.Fatalf("profiles: %v", profiles)
	}

	empty, err := st.Load(ctx, "nobody")
	if err != nil || empty.Len() != 0 {
		t.Fatalf("unknown profile: %v %v", empty.Keys(), err)
	}
}

// TestNew_RejectsBadTable verifies table names are validated before use.
func TestNew_RejectsBadTable(t *testing.T) {
	t.Parallel()

	_, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:", Table: "facts; DROP TABLE x"})
	if err == nil {
		t.Fatalf("expected error for invalid table name")
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := quoteIdent("main.autofill_facts"); got != `"main"."autofill_facts"` {
		t.Fatalf("quoteIdent: got %s", got)
	}
}
