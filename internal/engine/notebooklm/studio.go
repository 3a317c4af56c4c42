package notebooklm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

// Raw artifact status codes.
const (
	ArtifactInProgress = 1
	ArtifactPending    = 2
	ArtifactCompleted  = artifacts.StatusCompleted
	ArtifactFailed     = 4
)

// Positions within a raw artifact.
const (
	artID       = 0
	artTitle    = 1
	artType     = 2
	artSources  = 3
	artStatus   = 4
	artCreated  = 15
	reportBody  = 7 // report options; markdown at [7][0] once completed
	quizVariant = 9
)

const listFilter = `NOT artifact.status = "ARTIFACT_STATUS_SUGGESTED"`

// ListRaw returns every studio artifact of a notebook with its payload.
// Inside a listing memo scope the RPC runs once per notebook.
func (c *Client) ListRaw(ctx context.Context, notebookID string) ([]artifacts.RawArtifact, error) {
	return artifacts.SharedListing(ctx, notebookID, func() ([]artifacts.RawArtifact, error) {
		return c.fetchRaw(ctx, notebookID)
	})
}

func (c *Client) fetchRaw(ctx context.Context, notebookID string) ([]artifacts.RawArtifact, error) {
	v, err := c.call(ctx, RPCListArtifacts, []any{[]any{2}, notebookID, listFilter}, notebookPath(notebookID))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	items, _ := v.At(0).Items()
	out := make([]artifacts.RawArtifact, 0, len(items))
	for _, it := range items {
		id, ok := it.StrAt(artID)
		if !ok {
			continue
		}
		title, _ := it.StrAt(artTitle)
		typ, _ := it.At(artType).Number()
		st, _ := it.At(artStatus).Number()
		out = append(out, artifacts.RawArtifact{
			ID:       id,
			Title:    title,
			TypeCode: int(typ),
			Status:   int(st),
			Payload:  it,
		})
	}
	return out, nil
}

// ListArtifacts lists the artifacts of one kind. Failed artifacts are left
// out. Mind maps also include those saved as notes.
func (c *Client) ListArtifacts(ctx context.Context, kind artifacts.Kind, notebookID string) ([]artifacts.Record, error) {
	raw, err := c.ListRaw(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	reg := artifacts.DefaultRegistry()
	var out []artifacts.Record
	if kind == artifacts.KindMindMap {
		maps, err := c.ListMindMaps(ctx, notebookID)
		if err != nil {
			return nil, err
		}
		out = append(out, maps...)
	}
	for _, a := range raw {
		if a.Status == ArtifactFailed {
			continue
		}
		if k, ok := reg.KindForRaw(a); !ok || k != kind {
			continue
		}
		out = append(out, artifacts.Record{
			ID:        a.ID,
			Title:     a.Title,
			Language:  recordLanguage(kind, a.Payload),
			Kind:      kind,
			CreatedAt: timestamp(a.Payload.At(artCreated)),
		})
	}
	return out, nil
}

// optionsLayout is where the options block of each kind sits inside the
// artifact config, and where the language sits inside that block.
type optionsLayout struct {
	index    int
	language []int // path within the block, nil when the kind has none
}

var layouts = map[artifacts.Kind]optionsLayout{
	artifacts.KindAudio:       {index: 6, language: []int{1, 4}},
	artifacts.KindReport:      {index: 7, language: []int{1, 4}},
	artifacts.KindVideo:       {index: 8, language: []int{2, 1}},
	artifacts.KindQuiz:        {index: quizVariant},
	artifacts.KindFlashcards:  {index: quizVariant},
	artifacts.KindInfographic: {index: 14, language: []int{0, 1}},
	artifacts.KindSlides:      {index: 16, language: []int{0, 1}},
	artifacts.KindDataTable:   {index: 18, language: []int{1, 1}},
}

func recordLanguage(kind artifacts.Kind, payload artifacts.Value) string {
	l, ok := layouts[kind]
	if !ok || l.language == nil {
		return ""
	}
	path := append([]int{l.index}, l.language...)
	s, _ := payload.StrAt(path...)
	return s
}

func sourceTriples(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = []any{[]any{id}}
	}
	return out
}

// artifactConfig builds the CREATE_ARTIFACT config array for kind.
func artifactConfig(kind artifacts.Kind, typeCode int, sources []string, p artifacts.GenerateParams) []any {
	l := layouts[kind]
	cfg := make([]any, l.index+1)
	cfg[artType] = typeCode
	cfg[artSources] = sourceTriples(sources)

	var lang any
	if p.Language != "" {
		lang = p.Language
	}
	var instr any
	if p.Instructions != "" {
		instr = p.Instructions
	}
	switch kind {
	case artifacts.KindAudio:
		cfg[l.index] = []any{nil, []any{instr, nil, nil, sourceTriples(sources), lang, nil, 1}}
	case artifacts.KindReport:
		cfg[l.index] = []any{nil, []any{"Briefing Doc", "", nil, sourceTriples(sources), lang, instr, nil, true}}
	case artifacts.KindVideo:
		cfg[l.index] = []any{nil, nil, []any{sourceTriples(sources), lang, instr, nil, 1}}
	case artifacts.KindQuiz:
		cfg[l.index] = []any{nil, []any{2, nil, instr, nil, nil, nil, nil, []any{1, 2}}}
	case artifacts.KindFlashcards:
		cfg[l.index] = []any{nil, []any{1, nil, instr, nil, nil, nil, []any{1, 2}}}
	case artifacts.KindInfographic:
		cfg[l.index] = []any{[]any{instr, lang, nil, 1, 2}}
	case artifacts.KindSlides:
		cfg[l.index] = []any{[]any{instr, lang, 1, 3}}
	case artifacts.KindDataTable:
		cfg[l.index] = []any{nil, []any{instr, lang}}
	}
	return cfg
}

// Generate starts generation of one artifact kind. Rate limits and declared
// rejections come back as a failed status, not as an error.
func (c *Client) Generate(ctx context.Context, kind artifacts.Kind, notebookID string, p artifacts.GenerateParams) (*artifacts.GenerationStatus, error) {
	spec, ok := artifacts.DefaultRegistry().Spec(kind)
	if !ok {
		return nil, fmt.Errorf("generate: unknown kind %q", kind)
	}
	sources, err := c.sourceIDs(ctx, notebookID)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}
	if kind == artifacts.KindMindMap {
		return c.generateMindMap(ctx, notebookID, sources, p)
	}

	params := []any{[]any{2}, notebookID, artifactConfig(kind, spec.TypeCode, sources, p)}
	v, err := c.call(ctx, RPCCreateArtifact, params, notebookPath(notebookID))
	if st, handled := failedStatus(err); handled {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}

	art := v.At(0)
	taskID, _ := art.StrAt(artID)
	if taskID == "" {
		return &artifacts.GenerationStatus{Status: artifacts.GenerationFailed, Error: "no artifact returned"}, nil
	}
	code, _ := art.At(artStatus).Number()
	c.logger.Info("notebooklm: generation started",
		slog.String("notebook", notebookID), slog.String("kind", string(kind)), slog.String("task", taskID))
	return &artifacts.GenerationStatus{Status: statusName(int(code)), TaskID: taskID}, nil
}

// failedStatus turns an RPC-level rejection into a failed GenerationStatus.
func failedStatus(err error) (*artifacts.GenerationStatus, bool) {
	if err == nil {
		return nil, false
	}
	if IsRateLimited(err) {
		return &artifacts.GenerationStatus{Status: artifacts.GenerationFailed, RateLimited: true, Error: err.Error()}, true
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.HTTPStatus == 0 {
		return &artifacts.GenerationStatus{Status: artifacts.GenerationFailed, Error: err.Error()}, true
	}
	return nil, false
}

func statusName(code int) string {
	switch code {
	case ArtifactCompleted:
		return artifacts.GenerationCompleted
	case ArtifactFailed:
		return artifacts.GenerationFailed
	case ArtifactPending:
		return artifacts.GenerationPending
	default:
		return artifacts.GenerationInProgress
	}
}

// generateMindMap is answered inline with the mind map JSON, which is then
// saved as a note so later listings find it.
func (c *Client) generateMindMap(ctx context.Context, notebookID string, sources []string, p artifacts.GenerateParams) (*artifacts.GenerationStatus, error) {
	params := []any{
		sourceTriples(sources), nil, nil, nil, nil,
		[]any{"interactive_mindmap", []any{[]any{"[CONTEXT]", p.Instructions}}, ""},
		nil,
		[]any{2, nil, []any{1}},
	}
	v, err := c.call(ctx, RPCGenerateMindMap, params, notebookPath(notebookID))
	if st, handled := failedStatus(err); handled {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generate mind map: %w", err)
	}
	content, _ := v.StrAt(0, 0)
	if content == "" {
		return &artifacts.GenerationStatus{Status: artifacts.GenerationFailed, Error: "empty mind map"}, nil
	}
	noteID, err := c.CreateNote(ctx, notebookID, mindMapTitle(content), content)
	if err != nil {
		return nil, fmt.Errorf("save mind map: %w", err)
	}
	c.logger.Info("notebooklm: mind map saved",
		slog.String("notebook", notebookID), slog.String("note", noteID))
	return &artifacts.GenerationStatus{
		Status: artifacts.GenerationCompleted,
		Result: &artifacts.SyncResult{ID: noteID, Content: content},
	}, nil
}

// WaitForCompletion polls the artifact list until taskID completes or fails.
func (c *Client) WaitForCompletion(ctx context.Context, notebookID, taskID string) error {
	started := time.Now()
	err := c.poll(ctx, c.completionTimeout, ErrCompletionTimeout, func() (bool, error) {
		raw, err := c.ListRaw(ctx, notebookID)
		if err != nil {
			return false, err
		}
		for _, a := range raw {
			if a.ID != taskID {
				continue
			}
			switch a.Status {
			case ArtifactCompleted:
				return true, nil
			case ArtifactFailed:
				return false, backoff.Permanent(fmt.Errorf("%w: %s", ErrArtifactFailed, taskID))
			}
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", taskID, err)
	}
	c.logger.Debug("notebooklm: artifact completed", slog.String("task", taskID), slog.Duration("took", time.Since(started)))
	return nil
}

// ReportContent returns the markdown of the most recent completed report.
func (c *Client) ReportContent(ctx context.Context, notebookID string) (artifacts.Record, string, error) {
	raw, err := c.ListRaw(ctx, notebookID)
	if err != nil {
		return artifacts.Record{}, "", err
	}
	var reports []artifacts.RawArtifact
	for _, a := range raw {
		if a.TypeCode == artifacts.TypeCodeReport && a.Status == ArtifactCompleted {
			reports = append(reports, a)
		}
	}
	if len(reports) == 0 {
		return artifacts.Record{}, "", ErrNoReport
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return timestamp(reports[i].Payload.At(artCreated)).After(timestamp(reports[j].Payload.At(artCreated)))
	})
	latest := reports[0]
	body, _ := latest.Payload.StrAt(reportBody, 0)
	rec := artifacts.Record{
		ID:        latest.ID,
		Title:     latest.Title,
		Kind:      artifacts.KindReport,
		Language:  recordLanguage(artifacts.KindReport, latest.Payload),
		CreatedAt: timestamp(latest.Payload.At(artCreated)),
	}
	return rec, strings.TrimSpace(body), nil
}
