package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t    *testing.T
	base []string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, base: []string{
		"--env-file", filepath.Join(dir, "none.env"),
		"--store-kind", "sqlite",
		"--store-dsn", filepath.Join(dir, "facts.db"),
	}}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(append([]string{}, h.base...), args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// TestImportListProfiles round-trips facts through a sqlite store.
func TestImportListProfiles(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	a := writeFile(t, "a.json", `{"email":"ada@x.io","remote":true}`)
	b := writeFile(t, "b.yaml", "name: Ada Lovelace\nemail: ada@analytical.io\n")

	code, _, stderr := h.run("import", "--profile", "work", a, b)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, `"rows":5`)

	code, _, stderr = h.run("import", a)
	require.Equal(t, 0, code, stderr)

	code, out, stderr := h.run("list", "--profile", "work")
	require.Equal(t, 0, code, stderr)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ada@analytical.io", got["email"])
	assert.Equal(t, true, got["remote"])
	assert.Equal(t, "Lovelace", got["last_name"])
	assert.Less(t, strings.Index(out, `"email"`), strings.Index(out, `"name"`))

	code, out, stderr = h.run("profiles")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "default\nwork\n", out)
}

// TestListUnknownProfile prints an empty object.
func TestListUnknownProfile(t *testing.T) {
	t.Parallel()

	code, out, stderr := newHarness(t).run("list", "--profile", "nobody")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{}`, out)
}

// TestUsageErrors checks exit codes for bad invocations.
func TestUsageErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"drop"}, 2},
		{"import without files", []string{"import"}, 2},
		{"import missing file", []string{"import", "/does/not/exist.json"}, 1},
		{"import unknown format", []string{"import", "facts.toml"}, 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := newHarness(t).run(tc.args...)
			assert.Equal(t, tc.want, code, stderr)
		})
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--env-file", filepath.Join(t.TempDir(), "x.env"), "profiles"}, &stdout, &stderr)
	assert.Equal(t, 2, code, "store flags are required")
}
