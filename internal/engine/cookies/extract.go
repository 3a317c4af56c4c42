package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

// allowedHosts are the cookie hosts NotebookLM needs.
var allowedHosts = map[string]bool{
	".google.com":           true,
	"notebooklm.google.com": true,
	"accounts.google.com":   true,
}

// regionalHosts are country Google domains where the session may live.
var regionalHosts = []string{
	"google.es", "google.co.uk", "google.de", "google.fr", "google.it",
	"google.com.mx", "google.com.ar", "google.com.br",
}

var authCookieNames = map[string]bool{
	"SID": true, "HSID": true, "SSID": true, "APISID": true, "SAPISID": true,
	"__Secure-1PSID": true, "__Secure-3PSID": true,
	"__Secure-1PAPISID": true, "__Secure-3PAPISID": true,
	"__Secure-1PSIDCC": true, "__Secure-3PSIDCC": true,
	"__Secure-1PSIDTS": true, "__Secure-3PSIDTS": true,
	"__Secure-1PSIDRTS": true, "__Secure-3PSIDRTS": true,
	"SIDCC": true, "OSID": true, "__Secure-OSID": true,
	"LSID": true, "__Host-1PLSID": true, "__Host-3PLSID": true,
	"__Host-GAPS": true, "ACCOUNT_CHOOSER": true,
	"NID": true, "AEC": true, "SOCS": true,
}

// RequiredCookies must all be present for a usable session.
var RequiredCookies = []string{"SID"}

// AllowedHost reports whether cookies of host are exported.
func AllowedHost(host string) bool {
	if allowedHosts[host] {
		return true
	}
	for _, r := range regionalHosts {
		if host == r || host == "."+r {
			return true
		}
	}
	return false
}

// IsAuthCookie reports whether name is a Google session cookie.
func IsAuthCookie(name string) bool { return authCookieNames[name] }

var sameSiteNames = map[int]string{0: "None", 1: "Lax", 2: "Strict"}

// Firefox switched moz_cookies.expiry from seconds to milliseconds; values
// past this bound are milliseconds.
const msExpiryThreshold = 1e11

// ReadProfile copies the profile's cookie database aside, so a running
// Firefox holding its lock does not matter, and extracts the Google cookies.
func ReadProfile(ctx context.Context, p Profile) ([]notebooklm.Cookie, error) {
	src := filepath.Join(p.Path, "cookies.sqlite")
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCookiesDB, src)
	}
	dir, err := os.MkdirTemp("", "nbcookies-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "cookies.sqlite")
	if err := copyFile(src, dst); err != nil {
		return nil, err
	}
	// Recent writes may still sit in the write-ahead log.
	if _, err := os.Stat(src + "-wal"); err == nil {
		if err := copyFile(src+"-wal", dst+"-wal"); err != nil {
			return nil, err
		}
	}
	return ReadDB(ctx, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// ReadDB extracts the Google auth cookies of a Firefox cookies.sqlite file.
// Per (name, host) the cookie expiring last wins. The result is sorted by
// domain and name.
func ReadDB(ctx context.Context, path string) ([]notebooklm.Cookie, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cookies db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx,
		`SELECT name, value, host, path, expiry, isSecure, isHttpOnly, sameSite
		 FROM moz_cookies
		 WHERE host LIKE '%google%'
		 ORDER BY expiry DESC`)
	if err != nil {
		return nil, fmt.Errorf("query moz_cookies: %w", err)
	}
	defer rows.Close()

	type key struct{ name, host string }
	seen := make(map[key]bool)
	var out []notebooklm.Cookie
	for rows.Next() {
		var (
			name, value, host, path string
			expiry                  int64
			secure, httpOnly        bool
			sameSite                sql.NullInt64
		)
		if err := rows.Scan(&name, &value, &host, &path, &expiry, &secure, &httpOnly, &sameSite); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		if !AllowedHost(host) || !IsAuthCookie(name) {
			continue
		}
		k := key{name, host}
		if seen[k] {
			continue
		}
		seen[k] = true

		ss, ok := sameSiteNames[int(sameSite.Int64)]
		if !sameSite.Valid || !ok {
			ss = "Lax"
		}
		exp := float64(expiry)
		if exp > msExpiryThreshold {
			exp /= 1000
		}
		out = append(out, notebooklm.Cookie{
			Name:     name,
			Value:    value,
			Domain:   host,
			Path:     path,
			Expires:  exp,
			HTTPOnly: httpOnly,
			Secure:   secure,
			SameSite: ss,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MissingRequired lists the required cookies absent from cookies.
func MissingRequired(cookies []notebooklm.Cookie) []string {
	have := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		have[c.Name] = true
	}
	var missing []string
	for _, r := range RequiredCookies {
		if !have[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// Verify returns notebooklm.ErrMissingCookies when a required cookie is absent.
func Verify(cookies []notebooklm.Cookie) error {
	if missing := MissingRequired(cookies); len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", notebooklm.ErrMissingCookies, missing)
	}
	return nil
}
