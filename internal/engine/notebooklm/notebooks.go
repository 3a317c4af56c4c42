package notebooklm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

// Notebook is one NotebookLM notebook as listed.
type Notebook struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Emoji       string    `json:"emoji,omitempty"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	ModifiedAt  time.Time `json:"modified_at,omitzero"`
}

// SourceStatus is the processing state of a notebook source.
type SourceStatus int

const (
	SourceProcessing SourceStatus = 1
	SourceReady      SourceStatus = 2
	SourceError      SourceStatus = 3
)

func (s SourceStatus) String() string {
	switch s {
	case SourceProcessing:
		return "processing"
	case SourceReady:
		return "ready"
	case SourceError:
		return "error"
	default:
		return "unknown"
	}
}

// Source is a document attached to a notebook.
type Source struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status SourceStatus `json:"status"`
}

// NotebookDetail is a notebook together with its sources.
type NotebookDetail struct {
	Notebook
	Sources []Source `json:"sources"`
}

// Positions within a listed notebook.
const (
	nbTitle    = 0
	nbSources  = 1
	nbID       = 2
	nbEmoji    = 3
	nbMeta     = 5
	nbModified = 5 // within nbMeta
	nbCreated  = 8 // within nbMeta
)

// ListNotebooks returns every notebook of the account.
func (c *Client) ListNotebooks(ctx context.Context) ([]Notebook, error) {
	v, err := c.call(ctx, RPCListNotebooks, []any{nil, 1, nil, []any{2}}, "/")
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	items, _ := v.At(0).Items()
	out := make([]Notebook, 0, len(items))
	for _, it := range items {
		if nb, ok := parseNotebook(it); ok {
			out = append(out, nb)
		}
	}
	return out, nil
}

func parseNotebook(v artifacts.Value) (Notebook, bool) {
	id, ok := v.StrAt(nbID)
	if !ok || id == "" {
		return Notebook{}, false
	}
	title, _ := v.StrAt(nbTitle)
	emoji, _ := v.StrAt(nbEmoji)
	return Notebook{
		ID:          id,
		Title:       strings.TrimSpace(strings.TrimPrefix(title, "thought\n")),
		Emoji:       emoji,
		SourceCount: v.At(nbSources).Len(),
		CreatedAt:   timestamp(v.Path(nbMeta, nbCreated)),
		ModifiedAt:  timestamp(v.Path(nbMeta, nbModified)),
	}, true
}

// timestamp decodes a [seconds, nanos] pair.
func timestamp(v artifacts.Value) time.Time {
	sec, ok := v.At(0).Number()
	if !ok || sec <= 0 {
		return time.Time{}
	}
	nanos, _ := v.At(1).Number()
	return time.Unix(int64(sec), int64(nanos)).UTC()
}

// CreateNotebook creates an empty notebook titled title.
func (c *Client) CreateNotebook(ctx context.Context, title string) (Notebook, error) {
	v, err := c.call(ctx, RPCCreateNotebook, []any{title, nil, nil, []any{2}, []any{1}}, "/")
	if err != nil {
		return Notebook{}, fmt.Errorf("create notebook: %w", err)
	}
	nb, ok := parseNotebook(v)
	if !ok {
		return Notebook{}, fmt.Errorf("create notebook: %w", ErrEmptyResponse)
	}
	if nb.Title == "" {
		nb.Title = title
	}
	c.logger.Info("notebooklm: notebook created", slog.String("id", nb.ID))
	return nb, nil
}

// GetNotebook returns a notebook with its sources.
func (c *Client) GetNotebook(ctx context.Context, id string) (NotebookDetail, error) {
	v, err := c.call(ctx, RPCGetNotebook, []any{id, nil, []any{2}, nil, 0}, notebookPath(id))
	if err != nil {
		return NotebookDetail{}, fmt.Errorf("get notebook %s: %w", id, err)
	}
	raw := v.At(0)
	nb, ok := parseNotebook(raw)
	if !ok {
		return NotebookDetail{}, fmt.Errorf("%w: %s", ErrNotebookNotFound, id)
	}
	d := NotebookDetail{Notebook: nb}
	items, _ := raw.At(nbSources).Items()
	for _, s := range items {
		if src, ok := parseSource(s); ok {
			d.Sources = append(d.Sources, src)
		}
	}
	return d, nil
}

// A source entry: [[id], title, metadata, [null, status]].
func parseSource(v artifacts.Value) (Source, bool) {
	id, ok := v.StrAt(0, 0)
	if !ok || id == "" {
		return Source{}, false
	}
	title, _ := v.StrAt(1)
	st, _ := v.Path(3, 1).Number()
	status := SourceStatus(int(st))
	if status == 0 {
		status = SourceReady
	}
	return Source{ID: id, Title: title, Status: status}, true
}

func (c *Client) sourceIDs(ctx context.Context, notebookID string) ([]string, error) {
	d, err := c.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, s := range d.Sources {
		if s.Status != SourceError {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoSources
	}
	return ids, nil
}
