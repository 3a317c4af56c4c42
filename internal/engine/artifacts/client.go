package artifacts

import (
	"context"
	"time"
)

// StatusCompleted is the raw artifact status code of a finished artifact.
// Only completed artifacts are eligible for URL decoding.
const StatusCompleted = 3

// Generation status strings reported by the service.
const (
	GenerationFailed     = "failed"
	GenerationPending    = "pending"
	GenerationInProgress = "in_progress"
	GenerationCompleted  = "completed"
)

// Record is one artifact as listed by the service. Language is empty when the
// listing does not expose one.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Language  string    `json:"language,omitempty"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// RawArtifact is an entry of the bulk artifact listing together with its
// positional payload.
type RawArtifact struct {
	ID       string
	Title    string
	TypeCode int
	Status   int
	Payload  Value
}

// GenerateParams are the per-call generation parameters. Language is left
// empty for kinds that do not accept one.
type GenerateParams struct {
	Language     string
	Instructions string
}

// SyncResult is returned instead of a task handle by kinds the service
// answers inline.
type SyncResult struct {
	ID      string
	Content string
}

// GenerationStatus is the immediate answer to a generation request.
type GenerationStatus struct {
	Status      string
	RateLimited bool
	Error       string
	TaskID      string
	Result      *SyncResult
}

// Failed reports whether the service rejected the request outright.
func (s *GenerationStatus) Failed() bool {
	return s != nil && s.Status == GenerationFailed
}

// Lister lists a notebook's artifacts.
type Lister interface {
	ListArtifacts(ctx context.Context, kind Kind, notebookID string) ([]Record, error)
	ListRaw(ctx context.Context, notebookID string) ([]RawArtifact, error)
}

// Generator starts artifact generation and waits for it to finish.
type Generator interface {
	Generate(ctx context.Context, kind Kind, notebookID string, p GenerateParams) (*GenerationStatus, error)
	WaitForCompletion(ctx context.Context, notebookID, taskID string) error
}
