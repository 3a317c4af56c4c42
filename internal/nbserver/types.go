package nbserver

import "github.com/anatolykoptev/go_notebook/internal/engine/sources"

// NotebookListInput is the input of notebook_list.
type NotebookListInput struct {
	SortBy string `json:"sort_by,omitempty" jsonschema:"Sort order: name, created or modified (default: as returned by NotebookLM)"`
	Desc   bool   `json:"desc,omitempty" jsonschema:"Sort descending"`
}

// NotebookItem is one notebook in a listing. Timestamps are RFC 3339.
type NotebookItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	SourceCount int    `json:"source_count"`
	CreatedAt   string `json:"created_at,omitempty"`
	ModifiedAt  string `json:"modified_at,omitempty"`
}

// NotebookListOutput is the output of notebook_list.
type NotebookListOutput struct {
	Count     int            `json:"count"`
	Notebooks []NotebookItem `json:"notebooks"`
}

// NotebookStatusInput is the input of notebook_status.
type NotebookStatusInput struct {
	Notebook string `json:"notebook" jsonschema:"Notebook URL (https://notebooklm.google.com/notebook/<id>) or id"`
	Language string `json:"language,omitempty" jsonschema:"Language code that existing reports, audio summaries and mind maps must match (default: es)"`
}

// NotebookGenerateInput is the input of notebook_generate.
type NotebookGenerateInput struct {
	Notebook     string   `json:"notebook" jsonschema:"Notebook URL or id"`
	Kinds        []string `json:"kinds" jsonschema:"Artifact kinds to generate when missing: report, mind_map, data_table, quiz, flashcards, slides, infographic, audio, video, or all"`
	Language     string   `json:"language,omitempty" jsonschema:"Output language code (default: es)"`
	Instructions string   `json:"instructions,omitempty" jsonschema:"Extra instructions passed to kinds that accept them"`
	DelaySeconds int      `json:"delay_seconds,omitempty" jsonschema:"Pause between generation requests in seconds (default: 3)"`
}

// NotebookReportInput is the input of notebook_report.
type NotebookReportInput struct {
	Notebook string `json:"notebook" jsonschema:"Notebook URL or id"`
}

// YouTubeImportInput is the input of youtube_import.
type YouTubeImportInput struct {
	URL                  string   `json:"url" jsonschema:"YouTube video URL (watch, youtu.be, shorts, embed or live)"`
	Kinds                []string `json:"kinds,omitempty" jsonschema:"Artifact kinds to generate (default: report); use all for every kind"`
	Language             string   `json:"language,omitempty" jsonschema:"Output language code (default: es)"`
	Instructions         string   `json:"instructions,omitempty" jsonschema:"Extra instructions passed to kinds that accept them"`
	SourceTimeoutSeconds int      `json:"source_timeout_seconds,omitempty" jsonschema:"How long to wait for the video source to be processed (default: 60)"`
	DelaySeconds         int      `json:"delay_seconds,omitempty" jsonschema:"Pause between generation requests in seconds (default: 3)"`
}

// YouTubeMetadataInput is the input of youtube_metadata.
type YouTubeMetadataInput struct {
	URL string `json:"url" jsonschema:"YouTube video URL"`
}

// YouTubeMetadataOutput is the output of youtube_metadata.
type YouTubeMetadataOutput struct {
	Video          sources.VideoMetadata `json:"video"`
	NotebookName   string                `json:"notebook_name"`
	NotebookPrefix string                `json:"notebook_prefix"`
}
