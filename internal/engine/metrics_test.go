package engine

import (
	"strings"
	"testing"
)

func TestIncrArtifactOutcome(t *testing.T) {
	before := GetMetrics()
	for _, s := range []string{"succeeded", "succeeded", "rejected", "quota_exhausted", "error", "whatever"} {
		IncrArtifactOutcome(s)
	}
	after := GetMetrics()

	want := map[string]int64{
		"artifacts_succeeded": 2,
		"artifacts_rejected":  1,
		"artifacts_quota":     1,
		"artifacts_errored":   2,
	}
	for k, d := range want {
		if got := after[k] - before[k]; got != d {
			t.Errorf("%s delta = %d, want %d", k, got, d)
		}
	}
}

func TestFormatMetrics(t *testing.T) {
	out := FormatMetrics()
	for _, k := range []string{"rpc_calls ", "notebooks_created ", "source_timeouts ", "cache_hits "} {
		if !strings.Contains(out, k) {
			t.Errorf("FormatMetrics missing %q", k)
		}
	}
	if n := strings.Count(out, "\n"); n != 14 {
		t.Errorf("FormatMetrics lines = %d, want 14", n)
	}
}
