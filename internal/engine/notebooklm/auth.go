package notebooklm

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/net/html"
)

// StorageState is the Playwright storage_state.json layout the login tooling
// writes and the client reads cookies from.
type StorageState struct {
	Generated *Generated `json:"_generated,omitempty"`
	Cookies   []Cookie   `json:"cookies"`
	Origins   []any      `json:"origins"`
}

// Generated records which tool produced a storage state.
type Generated struct {
	Tool         string `json:"tool"`
	Version      string `json:"version"`
	Timestamp    string `json:"timestamp"`
	Source       string `json:"source"`
	CookiesCount int    `json:"cookies_count"`
}

// Cookie is one browser cookie in Playwright format. Expires is a unix
// timestamp in seconds, -1 for session cookies.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadStorageState reads a storage_state.json file.
func LoadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage state: %w", err)
	}
	var st StorageState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse storage state %s: %w", path, err)
	}
	return &st, nil
}

// IsGoogleDomain reports whether a cookie domain belongs to Google.
func IsGoogleDomain(domain string) bool {
	d := strings.TrimPrefix(strings.ToLower(domain), ".")
	return d == "google.com" || strings.HasSuffix(d, ".google.com") ||
		strings.HasPrefix(d, "google.") || strings.Contains(d, ".google.")
}

// CookieHeader renders the Google cookies as a Cookie header value. Expired
// cookies are skipped; SID must be present.
func (s *StorageState) CookieHeader(now time.Time) (string, error) {
	seen := make(map[string]bool)
	var parts []string
	hasSID := false
	cookies := append([]Cookie(nil), s.Cookies...)
	// More specific domains first so they win over .google.com duplicates.
	sort.SliceStable(cookies, func(i, j int) bool { return len(cookies[i].Domain) > len(cookies[j].Domain) })
	for _, c := range cookies {
		if !IsGoogleDomain(c.Domain) || c.Value == "" {
			continue
		}
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			continue
		}
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if c.Name == "SID" {
			hasSID = true
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	if !hasSID {
		return "", ErrMissingCookies
	}
	sort.Strings(parts)
	return strings.Join(parts, "; "), nil
}

// sessionTokens are the per-session values embedded in the NotebookLM page.
type sessionTokens struct {
	CSRF      string // SNlM0e, sent as "at"
	SessionID string // FdrFJe, sent as "f.sid"
	Build     string // cfb2h, sent as "bl"
}

var tokenPatterns = map[string]*regexp.Regexp{
	"SNlM0e": regexp.MustCompile(`"SNlM0e":"([^"]+)"`),
	"FdrFJe": regexp.MustCompile(`"FdrFJe":"([^"]+)"`),
	"cfb2h":  regexp.MustCompile(`"cfb2h":"([^"]+)"`),
}

// parseSessionTokens extracts the WIZ_global_data tokens from the home page.
func parseSessionTokens(page []byte) (sessionTokens, error) {
	script := wizScript(page)
	if script == "" {
		script = string(page)
	}
	find := func(key string) string {
		if m := tokenPatterns[key].FindStringSubmatch(script); m != nil {
			return m[1]
		}
		return ""
	}
	t := sessionTokens{CSRF: find("SNlM0e"), SessionID: find("FdrFJe"), Build: find("cfb2h")}
	if t.CSRF == "" {
		return t, ErrNotAuthenticated
	}
	return t, nil
}

// wizScript returns the text of the inline script defining WIZ_global_data.
func wizScript(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if inScript {
				if text := string(z.Text()); strings.Contains(text, "WIZ_global_data") {
					return text
				}
			}
		}
	}
}
