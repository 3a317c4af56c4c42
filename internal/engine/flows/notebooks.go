package flows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

// Sort orders accepted by ListNotebooks.
const (
	SortByName     = "name"
	SortByCreated  = "created"
	SortByModified = "modified"
)

// ListNotebooks returns the account notebooks ordered by sortBy. An empty
// sortBy keeps the service order.
func (s *Service) ListNotebooks(ctx context.Context, sortBy string, desc bool) ([]notebooklm.Notebook, error) {
	var less func(a, b notebooklm.Notebook) bool
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "":
	case SortByName:
		less = func(a, b notebooklm.Notebook) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortByCreated:
		less = func(a, b notebooklm.Notebook) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortByModified:
		less = func(a, b notebooklm.Notebook) bool { return a.ModifiedAt.Before(b.ModifiedAt) }
	default:
		return nil, fmt.Errorf("invalid sort %q: want name, created or modified", sortBy)
	}

	nbs, err := s.client.ListNotebooks(ctx)
	if err != nil {
		return nil, err
	}
	if less != nil {
		sort.SliceStable(nbs, func(i, j int) bool {
			if desc {
				return less(nbs[j], nbs[i])
			}
			return less(nbs[i], nbs[j])
		})
	}
	return nbs, nil
}

// Report is the latest completed report of a notebook.
type Report struct {
	NotebookID  string           `json:"notebook_id"`
	NotebookURL string           `json:"notebook_url"`
	Record      artifacts.Record `json:"record"`
	Content     string           `json:"content"`
}

// ReadReport returns the markdown of the newest completed report.
func (s *Service) ReadReport(ctx context.Context, notebook string) (*Report, error) {
	id := ExtractNotebookID(notebook)
	if id == "" {
		return nil, fmt.Errorf("empty notebook reference: %w", notebooklm.ErrNotebookNotFound)
	}
	rec, content, err := s.client.ReportContent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Report{NotebookID: id, NotebookURL: NotebookURL(id), Record: rec, Content: content}, nil
}
