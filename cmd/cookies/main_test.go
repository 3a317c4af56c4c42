package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_notebook/internal/engine/cookies"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

func writeProfile(t *testing.T, names ...string) string {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "abcd.default-release")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	db, err := sql.Open("sqlite", filepath.Join(dir, "cookies.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY,
		name TEXT, value TEXT, host TEXT, path TEXT,
		expiry INTEGER, isSecure INTEGER, isHttpOnly INTEGER, sameSite INTEGER
	)`)
	require.NoError(t, err)
	for _, n := range names {
		_, err := db.Exec(`INSERT INTO moz_cookies (name, value, host, path, expiry, isSecure, isHttpOnly, sameSite)
			VALUES (?, 'v', '.google.com', '/', 1800000000, 1, 1, 0)`, n)
		require.NoError(t, err)
	}
	return base
}

func TestRunWritesStorageState(t *testing.T) {
	base := writeProfile(t, "SID", "HSID")
	out := filepath.Join(t.TempDir(), "storage_state.json")

	var buf bytes.Buffer
	err := run(context.Background(), options{profilesDir: base, output: out}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Google auth cookies: 2")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRunReturnsErrors(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "storage_state.json")

	err := run(ctx, options{profilesDir: writeProfile(t, "SID"), profile: "nobody", output: out}, &bytes.Buffer{})
	assert.ErrorIs(t, err, cookies.ErrProfileNotFound)

	err = run(ctx, options{profilesDir: writeProfile(t, "HSID"), output: out}, &bytes.Buffer{})
	assert.ErrorIs(t, err, notebooklm.ErrMissingCookies)
	assert.NoFileExists(t, out)

	err = run(ctx, options{profilesDir: filepath.Join(t.TempDir(), "missing"), list: true}, &bytes.Buffer{})
	assert.ErrorIs(t, err, cookies.ErrProfilesDirNotFound)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "storage_state.json")
	var buf bytes.Buffer
	err := run(context.Background(), options{profilesDir: writeProfile(t, "SID"), output: out, dryRun: true}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "dry run")
	assert.NoFileExists(t, out)
}
