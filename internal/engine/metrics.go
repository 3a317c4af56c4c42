package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	RPCCalls              atomic.Int64
	RPCErrors             atomic.Int64
	RPCRateLimited        atomic.Int64
	NotebooksCreated      atomic.Int64
	SourcesAdded          atomic.Int64
	SourceTimeouts        atomic.Int64
	ArtifactsSucceeded    atomic.Int64
	ArtifactsRejected     atomic.Int64
	ArtifactsQuota        atomic.Int64
	ArtifactsErrored      atomic.Int64
	YouTubeMetadata       atomic.Int64
	YouTubeMetadataErrors atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"rpc_calls":               metrics.RPCCalls.Load(),
		"rpc_errors":              metrics.RPCErrors.Load(),
		"rpc_rate_limited":        metrics.RPCRateLimited.Load(),
		"notebooks_created":       metrics.NotebooksCreated.Load(),
		"sources_added":           metrics.SourcesAdded.Load(),
		"source_timeouts":         metrics.SourceTimeouts.Load(),
		"artifacts_succeeded":     metrics.ArtifactsSucceeded.Load(),
		"artifacts_rejected":      metrics.ArtifactsRejected.Load(),
		"artifacts_quota":         metrics.ArtifactsQuota.Load(),
		"artifacts_errored":       metrics.ArtifactsErrored.Load(),
		"youtube_metadata":        metrics.YouTubeMetadata.Load(),
		"youtube_metadata_errors": metrics.YouTubeMetadataErrors.Load(),
		"cache_hits":              hits,
		"cache_misses":            misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"rpc_calls", "rpc_errors", "rpc_rate_limited",
		"notebooks_created", "sources_added", "source_timeouts",
		"artifacts_succeeded", "artifacts_rejected", "artifacts_quota", "artifacts_errored",
		"youtube_metadata", "youtube_metadata_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the notebooklm sub-package.
func IncrRPCCall()        { metrics.RPCCalls.Add(1) }
func IncrRPCError()       { metrics.RPCErrors.Add(1) }
func IncrRPCRateLimited() { metrics.RPCRateLimited.Add(1) }

// Incrementors for flows.
func IncrNotebookCreated() { metrics.NotebooksCreated.Add(1) }
func IncrSourceAdded()     { metrics.SourcesAdded.Add(1) }
func IncrSourceTimeout()   { metrics.SourceTimeouts.Add(1) }

// IncrArtifactOutcome counts one generation outcome by its status string.
func IncrArtifactOutcome(status string) {
	switch status {
	case "succeeded":
		metrics.ArtifactsSucceeded.Add(1)
	case "rejected":
		metrics.ArtifactsRejected.Add(1)
	case "quota_exhausted":
		metrics.ArtifactsQuota.Add(1)
	default:
		metrics.ArtifactsErrored.Add(1)
	}
}

// Incrementors for sources/ sub-package.
func IncrYouTubeMetadata()      { metrics.YouTubeMetadata.Add(1) }
func IncrYouTubeMetadataError() { metrics.YouTubeMetadataErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
