package cookies

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

// ToolName and Version are recorded in the _generated block.
const (
	ToolName = "nbcookies"
	Version  = "1.0.0"
)

// BuildStorageState wraps cookies in the Playwright storage state layout.
func BuildStorageState(cookies []notebooklm.Cookie, p Profile, now time.Time) *notebooklm.StorageState {
	if cookies == nil {
		cookies = []notebooklm.Cookie{}
	}
	return &notebooklm.StorageState{
		Generated: &notebooklm.Generated{
			Tool:         ToolName,
			Version:      Version,
			Timestamp:    now.Format(time.RFC3339),
			Source:       fmt.Sprintf("Firefox profile: %s (%s)", p.Name, p.Dir),
			CookiesCount: len(cookies),
		},
		Cookies: cookies,
		Origins: []any{},
	}
}

// WriteStorageState writes st to path with owner-only permissions. An
// existing file is first renamed to <path>.bak; the backup path is
// returned when one was made.
func WriteStorageState(path string, st *notebooklm.StorageState) (string, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode storage state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	backup := ""
	if _, err := os.Stat(path); err == nil {
		backup = backupPath(path)
		if err := os.Rename(path, backup); err != nil {
			return "", fmt.Errorf("backup %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return backup, fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return backup, fmt.Errorf("chmod %s: %w", path, err)
	}
	return backup, nil
}

func backupPath(path string) string { return path + ".bak" }
