package nbserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
	"github.com/anatolykoptev/go_notebook/internal/engine/sources"
	"github.com/anatolykoptev/go_notebook/internal/toolutil"
)

func registerYouTubeImport(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_import",
		Description: "Import a YouTube video into NotebookLM. Reuses the notebook named YT-<video id> when it exists and only generates the missing kinds; otherwise creates the notebook, adds the video as a source and generates the requested kinds (default: report).",
	}, h.youtubeImport)
}

func (h *handlers) youtubeImport(ctx context.Context, _ *mcp.CallToolRequest, input YouTubeImportInput) (*mcp.CallToolResult, any, error) {
	if input.URL == "" {
		return nil, nil, errors.New("url is required")
	}
	res, err := h.svc.ImportVideo(ctx, flows.ImportRequest{
		URL:           input.URL,
		Language:      input.Language,
		Kinds:         toolutil.ParseKinds(input.Kinds),
		SourceTimeout: toolutil.Seconds(input.SourceTimeoutSeconds),
		Delay:         toolutil.Seconds(input.DelaySeconds),
		Instructions:  input.Instructions,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

// maxDescription bounds the description returned by youtube_metadata.
const maxDescription = 2000

func registerYouTubeMetadata(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_metadata",
		Description: "Fetch title, channel, upload date and description of a YouTube video, plus the notebook name an import would use.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.youtubeMetadata)
}

func (h *handlers) youtubeMetadata(ctx context.Context, _ *mcp.CallToolRequest, input YouTubeMetadataInput) (*mcp.CallToolResult, *YouTubeMetadataOutput, error) {
	if input.URL == "" {
		return nil, nil, errors.New("url is required")
	}
	meta, err := h.videos.FetchVideoMetadata(ctx, input.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("video metadata: %w", err)
	}
	meta.Description = engine.TruncateAtWord(meta.Description, maxDescription)
	return nil, &YouTubeMetadataOutput{
		Video:          meta,
		NotebookName:   sources.NotebookName(meta),
		NotebookPrefix: sources.NotebookPrefix(meta.VideoID),
	}, nil
}
