// go_notebook — NotebookLM artifact MCP server.
//
// Imports YouTube videos into NotebookLM notebooks and generates the missing
// studio artifacts (reports, mind maps, quizzes, audio and video overviews...)
// through six MCP tools. Authentication comes from a storage_state.json file
// written by cmd/cookies.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
	"github.com/anatolykoptev/go_notebook/internal/engine/sources"
	"github.com/anatolykoptev/go_notebook/internal/nbserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	logger := initLogger(env.Bool("DEBUG", false))
	initEngine(logger)

	client, err := notebooklm.FromConfig(logger)
	if err != nil {
		slog.Error("notebooklm client init failed",
			slog.String("storage_state", engine.Cfg.StorageStatePath),
			slog.Any("error", err))
		os.Exit(1)
	}
	videos := sources.NewYouTube(sources.WithYouTubeLogger(logger))
	svc := flows.FromConfig(client, videos, logger)

	slog.Info("starting go_notebook",
		slog.String("port", mcpPort),
		slog.String("language", engine.Cfg.DefaultLanguage),
		slog.Any("default_kinds", engine.Cfg.DefaultKinds),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_notebook",
		Version: version,
	}, nil)

	nbserver.RegisterTools(server, svc, videos)
	slog.Info("tools registered", slog.Int("count", nbserver.Tools))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_notebook",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 1800 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func initEngine(logger *slog.Logger) {
	c := engine.Config{
		Debug:                env.Bool("DEBUG", false),
		StorageStatePath:     env.Str("NOTEBOOKLM_STORAGE_STATE", defaultStorageState()),
		DefaultLanguage:      env.Str("NOTEBOOKLM_LANGUAGE", "es"),
		DefaultKinds:         env.List("NOTEBOOKLM_DEFAULT_KINDS", "report"),
		GenerationDelay:      env.Duration("GENERATION_DELAY", 3*time.Second),
		SourceTimeout:        env.Duration("SOURCE_TIMEOUT", 60*time.Second),
		CompletionTimeout:    env.Duration("COMPLETION_TIMEOUT", 15*time.Minute),
		PollInterval:         env.Duration("POLL_INTERVAL", 5*time.Second),
		RPCInterval:          env.Duration("RPC_INTERVAL", 500*time.Millisecond),
		RPCBurst:             env.Int("RPC_BURST", 2),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		YouTubeHL:            env.Str("YOUTUBE_HL", "en"),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if env.Bool("NOTEBOOKLM_STEALTH", true) {
		var opts []stealth.ClientOption
		opts = append(opts, stealth.WithTimeout(30))

		if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
			pool, err := proxypool.NewWebshare(apiKey)
			if err != nil {
				logger.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
			} else {
				opts = append(opts, stealth.WithProxyPool(pool))
				logger.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
			}
		}

		bc, err := stealth.NewClient(opts...)
		if err != nil {
			logger.Error("stealth client init failed", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			logger.Info("stealth browser client initialized")
		}
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 24*time.Hour)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

func defaultStorageState() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notebooklm/storage_state.json"
	}
	return home + "/.notebooklm/storage_state.json"
}
