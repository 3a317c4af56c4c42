package nbserver

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
	"github.com/anatolykoptev/go_notebook/internal/toolutil"
)

func registerNotebookList(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notebook_list",
		Description: "List the NotebookLM notebooks of the configured account with id, title, URL, source count and timestamps. Optionally sort by name, created or modified.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.notebookList)
}

func (h *handlers) notebookList(ctx context.Context, _ *mcp.CallToolRequest, input NotebookListInput) (*mcp.CallToolResult, *NotebookListOutput, error) {
	nbs, err := h.svc.ListNotebooks(ctx, input.SortBy, input.Desc)
	if err != nil {
		return nil, nil, err
	}
	out := &NotebookListOutput{Count: len(nbs), Notebooks: make([]NotebookItem, 0, len(nbs))}
	for _, nb := range nbs {
		out.Notebooks = append(out.Notebooks, NotebookItem{
			ID:          nb.ID,
			Title:       nb.Title,
			URL:         flows.NotebookURL(nb.ID),
			SourceCount: nb.SourceCount,
			CreatedAt:   rfc3339(nb.CreatedAt),
			ModifiedAt:  rfc3339(nb.ModifiedAt),
		})
	}
	return nil, out, nil
}

func registerNotebookStatus(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notebook_status",
		Description: "Report which artifact kinds (report, mind map, data table, quiz, flashcards, slides, infographic, audio, video) already exist on a notebook, with download URLs when available and the kinds limited by a daily quota. Does not generate anything.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.notebookStatus)
}

func (h *handlers) notebookStatus(ctx context.Context, _ *mcp.CallToolRequest, input NotebookStatusInput) (*mcp.CallToolResult, any, error) {
	if input.Notebook == "" {
		return nil, nil, errors.New("notebook is required")
	}
	res, err := h.svc.InspectNotebook(ctx, flows.InspectRequest{
		Notebook: input.Notebook,
		Language: input.Language,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

func registerNotebookGenerate(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notebook_generate",
		Description: "Generate the requested artifact kinds that a notebook is missing. Kinds that already exist are skipped. Requests are spaced by a fixed delay; kinds sharing a daily quota are skipped once one of them hits the limit. Returns one outcome per kind (succeeded, rejected, quota_exhausted, error).",
	}, h.notebookGenerate)
}

func (h *handlers) notebookGenerate(ctx context.Context, _ *mcp.CallToolRequest, input NotebookGenerateInput) (*mcp.CallToolResult, any, error) {
	if input.Notebook == "" {
		return nil, nil, errors.New("notebook is required")
	}
	kinds := toolutil.ParseKinds(input.Kinds)
	if len(kinds) == 0 {
		return nil, nil, errors.New("kinds is required")
	}
	res, err := h.svc.InspectNotebook(ctx, flows.InspectRequest{
		Notebook:     input.Notebook,
		Language:     input.Language,
		Kinds:        kinds,
		Delay:        toolutil.Seconds(input.DelaySeconds),
		Instructions: input.Instructions,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

func registerNotebookReport(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "notebook_report",
		Description: "Return the markdown content of the most recent completed report of a notebook.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.notebookReport)
}

func (h *handlers) notebookReport(ctx context.Context, _ *mcp.CallToolRequest, input NotebookReportInput) (*mcp.CallToolResult, any, error) {
	if input.Notebook == "" {
		return nil, nil, errors.New("notebook is required")
	}
	rep, err := h.svc.ReadReport(ctx, input.Notebook)
	if err != nil {
		return nil, nil, err
	}
	return nil, rep, nil
}

func rfc3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
