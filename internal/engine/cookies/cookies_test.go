package cookies

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

type mozCookie struct {
	name, value, host string
	expiry            int64
	sameSite          int
}

func writeCookiesDB(t *testing.T, dir string, rows []mozCookie) string {
	t.Helper()
	path := filepath.Join(dir, "cookies.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY,
		name TEXT, value TEXT, host TEXT, path TEXT,
		expiry INTEGER, isSecure INTEGER, isHttpOnly INTEGER, sameSite INTEGER
	)`)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO moz_cookies (name, value, host, path, expiry, isSecure, isHttpOnly, sameSite)
			VALUES (?, ?, ?, '/', ?, 1, 0, ?)`, r.name, r.value, r.host, r.expiry, r.sameSite)
		require.NoError(t, err)
	}
	return path
}

func TestReadDB(t *testing.T) {
	path := writeCookiesDB(t, t.TempDir(), []mozCookie{
		{"SID", "old", ".google.com", 1700000000, 0},
		{"SID", "new", ".google.com", 1800000000, 0},
		{"HSID", "h", ".google.com", 1800000000, 2},
		{"SID", "es", ".google.es", 1800000000, 1},
		{"NID", "n", "notebooklm.google.com", 1800000000000, 7},
		{"_ga", "tracking", ".google.com", 1800000000, 0},
		{"SID", "mail", "mail.google.com", 1800000000, 0},
		{"SID", "yt", ".youtube.com", 1800000000, 0},
	})

	got, err := ReadDB(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, ".google.com", got[0].Domain)
	assert.Equal(t, "HSID", got[0].Name)
	assert.Equal(t, "Strict", got[0].SameSite)
	assert.True(t, got[0].Secure)
	assert.False(t, got[0].HTTPOnly)

	assert.Equal(t, "SID", got[1].Name)
	assert.Equal(t, "new", got[1].Value)
	assert.Equal(t, float64(1800000000), got[1].Expires)

	assert.Equal(t, ".google.es", got[2].Domain)
	assert.Equal(t, "Lax", got[2].SameSite)

	assert.Equal(t, "notebooklm.google.com", got[3].Domain)
	assert.Equal(t, float64(1800000000), got[3].Expires, "millisecond expiry normalised")
	assert.Equal(t, "Lax", got[3].SameSite, "unknown sameSite falls back to Lax")

	assert.NoError(t, Verify(got))
}

func TestVerifyMissingSID(t *testing.T) {
	err := Verify([]notebooklm.Cookie{{Name: "HSID"}})
	assert.ErrorIs(t, err, notebooklm.ErrMissingCookies)
	assert.Equal(t, []string{"SID"}, MissingRequired(nil))
}

func TestAllowedHost(t *testing.T) {
	for _, h := range []string{".google.com", "notebooklm.google.com", "accounts.google.com", ".google.es", "google.co.uk", ".google.com.br"} {
		assert.True(t, AllowedHost(h), h)
	}
	for _, h := range []string{"mail.google.com", ".googleusercontent.com", ".youtube.com", "google.com"} {
		assert.False(t, AllowedHost(h), h)
	}
}

func makeProfiles(t *testing.T, dirs ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "profiles.ini"), nil, 0o644))
	return base
}

func TestListProfiles(t *testing.T) {
	base := makeProfiles(t, "kyetl4dz.Susana", "vonalg81.default-release", "9zudahgi.default")
	profiles, err := ListProfiles(base)
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, "9zudahgi.default", profiles[0].Dir)
	assert.Equal(t, "default", profiles[0].Name)
	assert.True(t, profiles[0].Default)
	assert.Equal(t, "Susana", profiles[1].Name)
	assert.False(t, profiles[1].Default)
	assert.True(t, profiles[2].Default)

	_, err = ListProfiles(filepath.Join(base, "missing"))
	assert.ErrorIs(t, err, ErrProfilesDirNotFound)
}

func TestFindProfile(t *testing.T) {
	base := makeProfiles(t, "kyetl4dz.Susana", "vonalg81.default-release", "9zudahgi.default")

	p, err := FindProfile(base, "")
	require.NoError(t, err)
	assert.Equal(t, "vonalg81.default-release", p.Dir)

	p, err = FindProfile(base, "Susana")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "kyetl4dz.Susana"), p.Path)

	_, err = FindProfile(base, "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	p, err = FindProfile(makeProfiles(t, "abc.default"), "")
	require.NoError(t, err)
	assert.Equal(t, "abc.default", p.Dir)

	_, err = FindProfile(makeProfiles(t, "abc.work"), "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestReadProfile(t *testing.T) {
	base := makeProfiles(t, "x.default-release", "y.empty")
	writeCookiesDB(t, filepath.Join(base, "x.default-release"), []mozCookie{
		{"SID", "s", ".google.com", 1800000000, 0},
	})

	p, err := FindProfile(base, "")
	require.NoError(t, err)
	got, err := ReadProfile(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s", got[0].Value)

	empty, err := FindProfile(base, "empty")
	require.NoError(t, err)
	_, err = ReadProfile(context.Background(), empty)
	assert.ErrorIs(t, err, ErrNoCookiesDB)
}

func TestWriteStorageState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nb", "storage_state.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Profile{Dir: "x.default-release", Name: "default-release"}
	cookies := []notebooklm.Cookie{{Name: "SID", Value: "s", Domain: ".google.com", Path: "/", Expires: 1800000000}}

	backup, err := WriteStorageState(path, BuildStorageState(cookies, p, now))
	require.NoError(t, err)
	assert.Empty(t, backup)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	st, err := notebooklm.LoadStorageState(path)
	require.NoError(t, err)
	require.NotNil(t, st.Generated)
	assert.Equal(t, 1, st.Generated.CookiesCount)
	assert.Equal(t, "Firefox profile: default-release (x.default-release)", st.Generated.Source)
	assert.Equal(t, "2026-03-01T12:00:00Z", st.Generated.Timestamp)
	header, err := st.CookieHeader(now)
	require.NoError(t, err)
	assert.Equal(t, "SID=s", header)

	backup, err = WriteStorageState(path, BuildStorageState(nil, p, now))
	require.NoError(t, err)
	assert.Equal(t, path+".bak", backup)
	old, err := notebooklm.LoadStorageState(backup)
	require.NoError(t, err)
	assert.Len(t, old.Cookies, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cookies": []`)
}

func TestProfilesDir(t *testing.T) {
	assert.Equal(t, "/mnt/c/Users/ana/AppData/Roaming/Mozilla/Firefox/Profiles", ProfilesDir("ana", PlatformWSL))
	assert.Equal(t, "/home/ana/.mozilla/firefox", ProfilesDir("ana", PlatformLinux))
	assert.Equal(t, "/Users/ana/Library/Application Support/Firefox/Profiles", ProfilesDir("ana", PlatformMacOS))
	assert.Equal(t, `C:\Users\ana\AppData\Roaming\Mozilla\Firefox\Profiles`, ProfilesDir("ana", PlatformWindows))
}
