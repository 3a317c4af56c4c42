package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
	"github.com/anatolykoptev/go_notebook/internal/engine/sources"
)

// slowMetadata is the metadata lookup time above which a warning is logged.
const slowMetadata = 10 * time.Second

// ImportRequest asks for a video notebook with the given kinds.
type ImportRequest struct {
	URL      string
	Language string
	// Kinds to generate; empty means the service default.
	Kinds []artifacts.Kind
	// SourceTimeout and Delay override the service defaults when positive.
	SourceTimeout time.Duration
	Delay         time.Duration
	Instructions  string
}

// ImportResult reports what an import found and did.
type ImportResult struct {
	RunID       string                `json:"run_id"`
	Video       sources.VideoMetadata `json:"video"`
	Notebook    notebooklm.Notebook   `json:"notebook"`
	NotebookURL string                `json:"notebook_url"`
	Created     bool                  `json:"created"`
	SourceReady bool                  `json:"source_ready"`
	Warnings    []string              `json:"warnings,omitempty"`
	Language    string                `json:"language"`
	Requested   []artifacts.Kind      `json:"requested"`
	Existing    []artifacts.Kind      `json:"existing,omitempty"`
	Status      *artifacts.Status     `json:"status,omitempty"`
	Generation  *artifacts.RunResult  `json:"generation,omitempty"`
	Suggestions []artifacts.Kind      `json:"suggestions,omitempty"`
}

// ImportVideo finds or creates the notebook of a YouTube video and generates
// the requested kinds that it lacks.
func (s *Service) ImportVideo(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	runID, log := s.runLogger("import")
	if _, err := sources.ExtractVideoID(req.URL); err != nil {
		return nil, err
	}
	lang := s.lang(req.Language)
	requested := req.Kinds
	if len(requested) == 0 {
		requested = s.defaultKinds
	}
	res := &ImportResult{RunID: runID, Language: lang, Requested: requested}

	var meta sources.VideoMetadata
	err := engine.TrackOperation(ctx, "youtube_metadata", slowMetadata, func(ctx context.Context) error {
		var err error
		meta, err = s.videos.FetchVideoMetadata(ctx, req.URL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("video metadata: %w", err)
	}
	res.Video = meta
	log.Info("import: video resolved", slog.String("video", meta.VideoID), slog.String("title", meta.Title))

	existing, err := s.findVideoNotebook(ctx, meta.VideoID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.importExisting(ctx, log, res, *existing, req)
	}
	return s.importNew(ctx, log, res, req)
}

func (s *Service) findVideoNotebook(ctx context.Context, videoID string) (*notebooklm.Notebook, error) {
	nbs, err := s.client.ListNotebooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("find notebook: %w", err)
	}
	prefix := sources.NotebookPrefix(videoID)
	for i := range nbs {
		if strings.HasPrefix(nbs[i].Title, prefix) {
			return &nbs[i], nil
		}
	}
	return nil, nil
}

func (s *Service) importExisting(ctx context.Context, log *slog.Logger, res *ImportResult, nb notebooklm.Notebook, req ImportRequest) (*ImportResult, error) {
	res.Notebook = nb
	res.NotebookURL = NotebookURL(nb.ID)
	res.SourceReady = true
	log.Info("import: notebook exists", slog.String("notebook", nb.ID))

	st := s.scan(ctx, log, nb.ID, res.Language)
	res.Status = &st
	res.Existing = available(st, res.Requested)

	if toGenerate := s.pending(st, res.Requested); len(toGenerate) > 0 {
		run := s.generate(ctx, log, nb.ID, toGenerate, res.Language, req.Delay, req.Instructions)
		res.Generation = &run
	}
	res.Suggestions = st.Suggest(res.Requested)
	return res, nil
}

func (s *Service) importNew(ctx context.Context, log *slog.Logger, res *ImportResult, req ImportRequest) (*ImportResult, error) {
	name := sources.NotebookName(res.Video)
	nb, err := s.client.CreateNotebook(ctx, name)
	if err != nil {
		return nil, err
	}
	engine.IncrNotebookCreated()
	res.Notebook = nb
	res.NotebookURL = NotebookURL(nb.ID)
	res.Created = true
	log.Info("import: notebook created", slog.String("notebook", nb.ID), slog.String("name", name))

	timeout := req.SourceTimeout
	if timeout <= 0 {
		timeout = s.sourceTimeout
	}
	_, err = s.client.AddSource(ctx, nb.ID, sources.WatchURL(res.Video.VideoID), true, timeout)
	switch {
	case err == nil:
		engine.IncrSourceAdded()
		res.SourceReady = true
	case errors.Is(err, notebooklm.ErrSourceTimeout), errors.Is(err, notebooklm.ErrSourceFailed):
		engine.IncrSourceAdded()
		if errors.Is(err, notebooklm.ErrSourceTimeout) {
			engine.IncrSourceTimeout()
		}
		res.Warnings = append(res.Warnings, "source not ready: "+err.Error())
		log.Warn("import: source wait ended without a ready source", slog.Any("error", err))
	default:
		return res, fmt.Errorf("add video source: %w", err)
	}

	run := s.generate(ctx, log, nb.ID, res.Requested, res.Language, req.Delay, req.Instructions)
	res.Generation = &run
	res.Suggestions = s.notRequested(res.Requested)
	return res, nil
}

// notRequested lists registered kinds outside requested, in canonical order.
func (s *Service) notRequested(requested []artifacts.Kind) []artifacts.Kind {
	asked := make(map[artifacts.Kind]bool, len(requested))
	for _, k := range requested {
		asked[k] = true
	}
	var out []artifacts.Kind
	for _, k := range s.registry.Kinds() {
		if !asked[k] {
			out = append(out, k)
		}
	}
	return out
}
