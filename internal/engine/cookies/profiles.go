// Package cookies exports the Google session of a local Firefox profile into
// the storage_state.json file the NotebookLM client authenticates with.
package cookies

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Platform is where Firefox keeps its profiles.
type Platform string

const (
	PlatformWSL     Platform = "wsl"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
)

var (
	ErrProfilesDirNotFound = errors.New("firefox profiles directory not found")
	ErrProfileNotFound     = errors.New("firefox profile not found")
	ErrNoCookiesDB         = errors.New("profile has no cookies.sqlite")
)

// wslMarker exists when running under WSL with the Windows drive mounted.
var wslMarker = "/mnt/c/Windows"

// DetectPlatform reports the platform of the running process. Linux with the
// Windows drive mounted counts as WSL, reading the Windows Firefox install.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	case "linux":
		if _, err := os.Stat(wslMarker); err == nil {
			return PlatformWSL
		}
	}
	return PlatformLinux
}

// ProfilesDir is the Firefox profiles directory of user on platform p.
func ProfilesDir(user string, p Platform) string {
	switch p {
	case PlatformWSL:
		return "/mnt/c/Users/" + user + "/AppData/Roaming/Mozilla/Firefox/Profiles"
	case PlatformWindows:
		return `C:\Users\` + user + `\AppData\Roaming\Mozilla\Firefox\Profiles`
	case PlatformMacOS:
		return "/Users/" + user + "/Library/Application Support/Firefox/Profiles"
	default:
		return "/home/" + user + "/.mozilla/firefox"
	}
}

// Profile is one Firefox profile directory, named "<salt>.<name>".
type Profile struct {
	Dir     string `json:"dir"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Path    string `json:"path"`
}

func profileName(dir string) string {
	if _, name, ok := strings.Cut(dir, "."); ok {
		return name
	}
	return dir
}

func isDefaultProfile(dir string) bool {
	return strings.Contains(dir, "default-release") || strings.HasSuffix(dir, ".default")
}

// ListProfiles returns the profiles under base sorted by directory name.
func ListProfiles(base string) ([]Profile, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProfilesDirNotFound, base)
		}
		return nil, err
	}
	var out []Profile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, Profile{
			Dir:     e.Name(),
			Name:    profileName(e.Name()),
			Default: isDefaultProfile(e.Name()),
			Path:    filepath.Join(base, e.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

// FindProfile picks the profile whose directory contains name. With no name
// the default-release profile wins, then any profile named default.
func FindProfile(base, name string) (Profile, error) {
	profiles, err := ListProfiles(base)
	if err != nil {
		return Profile{}, err
	}
	if name != "" {
		for _, p := range profiles {
			if strings.Contains(p.Dir, name) {
				return p, nil
			}
		}
		return Profile{}, fmt.Errorf("%w: %q in %s", ErrProfileNotFound, name, base)
	}
	for _, p := range profiles {
		if strings.Contains(p.Dir, "default-release") {
			return p, nil
		}
	}
	for _, p := range profiles {
		if strings.Contains(p.Dir, "default") {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: no default profile in %s", ErrProfileNotFound, base)
}
