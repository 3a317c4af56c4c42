package notebooklm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

// Note is a notebook note. Generated mind maps are stored as notes whose
// content is the mind map JSON.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// IsMindMap reports whether the note holds a mind map tree.
func (n Note) IsMindMap() bool {
	return strings.Contains(n.Content, `"children":`) || strings.Contains(n.Content, `"nodes":`)
}

const noteDeleted = 2

// ListNotes returns the live notes of a notebook, mind maps included.
func (c *Client) ListNotes(ctx context.Context, notebookID string) ([]Note, error) {
	v, err := c.call(ctx, RPCListNotes, []any{notebookID}, notebookPath(notebookID))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	items, _ := v.At(0).Items()
	out := make([]Note, 0, len(items))
	for _, it := range items {
		id, ok := it.StrAt(0)
		if !ok {
			continue
		}
		if it.At(1).IsNull() {
			if st, _ := it.At(2).Number(); int(st) == noteDeleted {
				continue
			}
		}
		n := Note{ID: id}
		if s, ok := it.StrAt(1); ok {
			n.Content = s
		} else {
			n.Content, _ = it.StrAt(1, 1)
			n.Title, _ = it.StrAt(1, 4)
		}
		out = append(out, n)
	}
	return out, nil
}

// ListMindMaps lists the mind maps saved as notes.
func (c *Client) ListMindMaps(ctx context.Context, notebookID string) ([]artifacts.Record, error) {
	notes, err := c.ListNotes(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	var out []artifacts.Record
	for _, n := range notes {
		if !n.IsMindMap() {
			continue
		}
		out = append(out, artifacts.Record{ID: n.ID, Title: n.Title, Kind: artifacts.KindMindMap})
	}
	return out, nil
}

// CreateNote adds a note and fills in its title and content. The service
// creates notes empty, so this takes two RPCs.
func (c *Client) CreateNote(ctx context.Context, notebookID, title, content string) (string, error) {
	v, err := c.call(ctx, RPCCreateNote, []any{notebookID, "", []any{1}, nil, "New Note"}, notebookPath(notebookID))
	if err != nil {
		return "", fmt.Errorf("create note: %w", err)
	}
	id, ok := v.StrAt(0, 0)
	if !ok {
		id, ok = v.StrAt(0)
	}
	if !ok || id == "" {
		return "", errors.New("create note: no note id returned")
	}
	params := []any{notebookID, id, []any{[]any{[]any{content, title, []any{}, 0}}}}
	if _, err := c.call(ctx, RPCUpdateNote, params, notebookPath(notebookID)); err != nil {
		return id, fmt.Errorf("update note %s: %w", id, err)
	}
	return id, nil
}

// mindMapTitle is the root node name of a mind map tree.
func mindMapTitle(content string) string {
	var root struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(content), &root); err != nil || root.Name == "" {
		return "Mind map"
	}
	return root.Name
}
