package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Debug             bool
	StorageStatePath  string // Playwright storage_state.json with Google cookies
	DefaultLanguage   string
	DefaultKinds      []string
	GenerationDelay   time.Duration // pause between generation dispatches
	SourceTimeout     time.Duration // wait for a new source to finish processing
	CompletionTimeout time.Duration // wait for a generated artifact
	PollInterval      time.Duration
	RPCInterval       time.Duration // minimum spacing between NotebookLM RPCs
	RPCBurst          int
	FetchTimeout      time.Duration
	YouTubeHL         string // interface language sent to Innertube

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain HTTP transport
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
