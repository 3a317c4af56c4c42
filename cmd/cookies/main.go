// cookies exports the Google session of a Firefox profile to the
// storage_state.json file the notebook server reads.
//
// Firefox may stay open: the cookie database is copied before reading.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/charmbracelet/lipgloss"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/cookies"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B949E"))
	headStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

// options are the command-line settings of one export.
type options struct {
	user        string
	profile     string
	output      string
	profilesDir string
	dryRun      bool
	verbose     bool
	list        bool
}

func main() {
	var o options
	flag.StringVar(&o.user, "user", env.Str("FIREFOX_USER", os.Getenv("USER")), "OS user owning the Firefox profiles (Windows user under WSL)")
	flag.StringVar(&o.profile, "profile", "", "profile name or any part of its directory (default: default-release)")
	flag.StringVar(&o.output, "output", defaultOutput(), "storage state path")
	flag.StringVar(&o.profilesDir, "profiles-dir", "", "Firefox profiles directory (overrides platform detection)")
	flag.BoolVar(&o.dryRun, "dry-run", false, "print the cookies without writing")
	flag.BoolVar(&o.verbose, "verbose", false, "print every exported cookie")
	flag.BoolVar(&o.list, "list-profiles", false, "list Firefox profiles and exit")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := run(ctx, o, os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error:")+" "+strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer) error {
	base := o.profilesDir
	if base == "" {
		platform := cookies.DetectPlatform()
		base = cookies.ProfilesDir(o.user, platform)
		if o.verbose {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("platform %s, profiles in %s", platform, base)))
		}
	}

	if o.list {
		return listProfiles(w, base, o.user)
	}

	p, err := cookies.FindProfile(base, o.profile)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Profile: %s (%s)\n", p.Name, p.Dir)

	found, err := cookies.ReadProfile(ctx, p)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	fmt.Fprintf(w, "Google auth cookies: %d\n", len(found))
	if o.verbose || o.dryRun {
		printCookies(w, found)
	}

	if err := cookies.Verify(found); err != nil {
		return fmt.Errorf("%w\nSign in to Google (notebooklm.google.com) in this Firefox profile and retry", err)
	}

	if o.dryRun {
		fmt.Fprintln(w, dimStyle.Render("dry run, nothing written"))
		return nil
	}

	st := cookies.BuildStorageState(found, p, time.Now())
	backup, err := cookies.WriteStorageState(o.output, st)
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintln(w, dimStyle.Render("previous file saved as "+backup))
	}
	fmt.Fprintln(w, okStyle.Render("✓")+" wrote "+o.output)
	return nil
}

func defaultOutput() string {
	if p := env.Str("NOTEBOOKLM_STORAGE_STATE", ""); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".notebooklm", "storage_state.json")
	}
	return filepath.Join(home, ".notebooklm", "storage_state.json")
}

func listProfiles(w io.Writer, base, user string) error {
	profiles, err := cookies.ListProfiles(base)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, headStyle.Render(fmt.Sprintf("Firefox profiles for %q", user)))
	fmt.Fprintln(w)
	for _, p := range profiles {
		mark := ""
		if p.Default {
			mark = okStyle.Render(" *")
		}
		fmt.Fprintf(w, "  %-30s %s%s\n", p.Name, dimStyle.Render("("+p.Dir+")"), mark)
	}
	fmt.Fprintf(w, "\nTotal: %d profile(s), * = default\n", len(profiles))
	return nil
}

func printCookies(w io.Writer, list []notebooklm.Cookie) {
	for _, c := range list {
		exp := "session"
		if c.Expires > 0 {
			exp = time.Unix(int64(c.Expires), 0).Format("2006-01-02")
		}
		value := engine.TruncateRunes(c.Value, 12, "…")
		fmt.Fprintf(w, "  %-22s %-24s %s %s\n", c.Name, c.Domain, dimStyle.Render(exp), dimStyle.Render(value))
	}
}
