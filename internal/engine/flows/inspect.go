package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
)

// InspectRequest asks for the status of a notebook and, optionally, the
// generation of the listed kinds it lacks.
type InspectRequest struct {
	// Notebook is a notebook URL or id.
	Notebook     string
	Language     string
	Kinds        []artifacts.Kind
	Delay        time.Duration
	Instructions string
}

// InspectResult reports the state of a notebook.
type InspectResult struct {
	RunID       string               `json:"run_id"`
	Notebook    notebooklm.Notebook  `json:"notebook"`
	NotebookURL string               `json:"notebook_url"`
	Language    string               `json:"language"`
	Status      artifacts.Status     `json:"status"`
	Summary     []string             `json:"summary"`
	Requested   []artifacts.Kind     `json:"requested,omitempty"`
	Existing    []artifacts.Kind     `json:"existing,omitempty"`
	Generation  *artifacts.RunResult `json:"generation,omitempty"`
	Suggestions []artifacts.Kind     `json:"suggestions,omitempty"`
}

// InspectNotebook scans a notebook and generates the requested kinds that
// are missing. Without requested kinds it only reports.
func (s *Service) InspectNotebook(ctx context.Context, req InspectRequest) (*InspectResult, error) {
	runID, log := s.runLogger("inspect")
	nb, err := s.resolveNotebook(ctx, req.Notebook)
	if err != nil {
		return nil, err
	}
	lang := s.lang(req.Language)
	res := &InspectResult{
		RunID:       runID,
		Notebook:    nb,
		NotebookURL: NotebookURL(nb.ID),
		Language:    lang,
		Requested:   req.Kinds,
	}
	log.Info("inspect: scanning", slog.String("notebook", nb.ID), slog.String("lang", lang))

	res.Status = s.scan(ctx, log, nb.ID, lang)
	res.Summary = res.Status.Lines()
	if len(req.Kinds) == 0 {
		res.Suggestions = res.Status.Missing
		return res, nil
	}

	res.Existing = available(res.Status, req.Kinds)
	if toGenerate := s.pending(res.Status, req.Kinds); len(toGenerate) > 0 {
		run := s.generate(ctx, log, nb.ID, toGenerate, lang, req.Delay, req.Instructions)
		res.Generation = &run
	}
	res.Suggestions = res.Status.Suggest(req.Kinds)
	return res, nil
}

// resolveNotebook finds a notebook of the account by URL or id.
func (s *Service) resolveNotebook(ctx context.Context, input string) (notebooklm.Notebook, error) {
	id := ExtractNotebookID(input)
	if id == "" {
		return notebooklm.Notebook{}, fmt.Errorf("empty notebook reference: %w", notebooklm.ErrNotebookNotFound)
	}
	nbs, err := s.client.ListNotebooks(ctx)
	if err != nil {
		return notebooklm.Notebook{}, fmt.Errorf("list notebooks: %w", err)
	}
	for _, nb := range nbs {
		if nb.ID == id {
			return nb, nil
		}
	}
	return notebooklm.Notebook{}, fmt.Errorf("%s: %w", id, notebooklm.ErrNotebookNotFound)
}
