// Package toolutil provides shared helpers for the notebook MCP tools.
package toolutil

import (
	"strings"
	"time"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
)

// SplitList flattens list items that may themselves be comma separated,
// so both ["report","quiz"] and ["report, quiz"] are accepted.
func SplitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseKinds turns tool input into artifact kinds. "all" expands to every
// registered kind. Unknown names are kept so the run can report them.
func ParseKinds(items []string) []artifacts.Kind {
	names := SplitList(items)
	reg := artifacts.DefaultRegistry()
	for _, n := range names {
		if strings.EqualFold(n, "all") {
			return reg.Kinds()
		}
	}
	return flows.ParseKinds(reg, names)
}

// Seconds converts a seconds field to a duration; zero or negative → 0,
// which lets the service default apply.
func Seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
