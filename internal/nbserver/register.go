// Package nbserver registers the notebook MCP tools.
package nbserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
)

// Tools is the number of tools RegisterTools adds.
const Tools = 6

// RegisterTools registers every notebook tool on server:
// notebook_list, notebook_status, notebook_generate, notebook_report,
// youtube_import, youtube_metadata.
func RegisterTools(server *mcp.Server, svc *flows.Service, videos flows.VideoLookup) {
	h := &handlers{svc: svc, videos: videos}
	registerNotebookList(server, h)
	registerNotebookStatus(server, h)
	registerNotebookGenerate(server, h)
	registerNotebookReport(server, h)
	registerYouTubeImport(server, h)
	registerYouTubeMetadata(server, h)
}

type handlers struct {
	svc    *flows.Service
	videos flows.VideoLookup
}
