// Package flows runs the end-to-end notebook operations: importing a YouTube
// video, inspecting a notebook, listing notebooks and reading its report.
package flows

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
	"github.com/anatolykoptev/go_notebook/internal/engine/sources"
)

// NotebookClient is the NotebookLM surface the flows need.
type NotebookClient interface {
	artifacts.Lister
	artifacts.Generator
	ListNotebooks(ctx context.Context) ([]notebooklm.Notebook, error)
	CreateNotebook(ctx context.Context, title string) (notebooklm.Notebook, error)
	AddSource(ctx context.Context, notebookID, sourceURL string, wait bool, timeout time.Duration) (notebooklm.Source, error)
	ReportContent(ctx context.Context, notebookID string) (artifacts.Record, string, error)
}

// VideoLookup resolves YouTube video metadata.
type VideoLookup interface {
	FetchVideoMetadata(ctx context.Context, rawURL string) (sources.VideoMetadata, error)
}

const defaultSourceTimeout = 60 * time.Second

// Service runs flows against one NotebookLM account.
type Service struct {
	client        NotebookClient
	videos        VideoLookup
	registry      *artifacts.Registry
	logger        *slog.Logger
	language      string
	defaultKinds  []artifacts.Kind
	delay         time.Duration
	sourceTimeout time.Duration
	sleep         artifacts.SleepFunc
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithRegistry overrides the kind registry.
func WithRegistry(r *artifacts.Registry) Option { return func(s *Service) { s.registry = r } }

// WithDefaultLanguage sets the language used when a request has none.
func WithDefaultLanguage(lang string) Option {
	return func(s *Service) { s.language = strings.ToLower(strings.TrimSpace(lang)) }
}

// WithDefaultKinds sets the kinds an import generates when none are requested.
func WithDefaultKinds(kinds ...artifacts.Kind) Option {
	return func(s *Service) { s.defaultKinds = kinds }
}

// WithDelay sets the pause between generation dispatches.
func WithDelay(d time.Duration) Option { return func(s *Service) { s.delay = d } }

// WithSourceTimeout bounds the wait for a new video source.
func WithSourceTimeout(d time.Duration) Option { return func(s *Service) { s.sourceTimeout = d } }

// WithSleep replaces the scheduler delay, mostly for tests.
func WithSleep(fn artifacts.SleepFunc) Option { return func(s *Service) { s.sleep = fn } }

// NewService creates a Service.
func NewService(client NotebookClient, videos VideoLookup, opts ...Option) *Service {
	s := &Service{
		client:        client,
		videos:        videos,
		registry:      artifacts.DefaultRegistry(),
		logger:        slog.Default(),
		language:      "es",
		defaultKinds:  []artifacts.Kind{artifacts.KindReport},
		delay:         artifacts.DefaultDelay,
		sourceTimeout: defaultSourceTimeout,
		sleep:         artifacts.Sleep,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FromConfig builds a Service from the engine configuration.
func FromConfig(client NotebookClient, videos VideoLookup, logger *slog.Logger) *Service {
	c := engine.Cfg
	opts := []Option{WithLogger(logger)}
	if c.DefaultLanguage != "" {
		opts = append(opts, WithDefaultLanguage(c.DefaultLanguage))
	}
	if kinds := ParseKinds(artifacts.DefaultRegistry(), c.DefaultKinds); len(kinds) > 0 {
		opts = append(opts, WithDefaultKinds(kinds...))
	}
	if c.GenerationDelay > 0 {
		opts = append(opts, WithDelay(c.GenerationDelay))
	}
	if c.SourceTimeout > 0 {
		opts = append(opts, WithSourceTimeout(c.SourceTimeout))
	}
	return NewService(client, videos, opts...)
}

// ParseKinds maps names to kinds, keeping unknown names as-is so the
// scheduler can report them.
func ParseKinds(reg *artifacts.Registry, names []string) []artifacts.Kind {
	var out []artifacts.Kind
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if k, ok := reg.ParseKind(n); ok {
			out = append(out, k)
			continue
		}
		out = append(out, artifacts.Kind(strings.ToLower(n)))
	}
	return out
}

func (s *Service) lang(requested string) string {
	if l := strings.ToLower(strings.TrimSpace(requested)); l != "" {
		return l
	}
	return s.language
}

// runLogger tags every log line of one flow invocation.
func (s *Service) runLogger(flow string) (string, *slog.Logger) {
	id := uuid.NewString()
	return id, s.logger.With(slog.String("flow", flow), slog.String("run", id))
}

func (s *Service) scan(ctx context.Context, log *slog.Logger, notebookID, lang string) artifacts.Status {
	scanner := artifacts.NewScanner(s.client,
		artifacts.WithScanLogger(log),
		artifacts.WithScanRegistry(s.registry))
	snap := scanner.Scan(ctx, notebookID, lang)
	return artifacts.BuildStatus(s.registry, snap)
}

func (s *Service) generate(ctx context.Context, log *slog.Logger, notebookID string, kinds []artifacts.Kind, lang string, delay time.Duration, instructions string) artifacts.RunResult {
	if delay <= 0 {
		delay = s.delay
	}
	sched := artifacts.NewScheduler(s.client,
		artifacts.WithRegistry(s.registry),
		artifacts.WithLogger(log),
		artifacts.WithDelay(delay),
		artifacts.WithSleep(s.sleep),
		artifacts.WithInstructions(instructions),
		artifacts.WithObserver(func(o artifacts.Outcome) {
			engine.IncrArtifactOutcome(string(o.Status))
			log.Info("generate: outcome",
				slog.String("kind", string(o.Kind)),
				slog.String("status", string(o.Status)),
				slog.String("reason", o.Reason),
				slog.Duration("took", o.Duration()))
		}))
	return sched.Run(ctx, notebookID, kinds, lang)
}

// NotebookURL is the browser URL of a notebook.
func NotebookURL(id string) string {
	return notebooklm.DefaultBaseURL + "/notebook/" + id
}

// ExtractNotebookID accepts a notebook URL or a bare id.
func ExtractNotebookID(input string) string {
	input = strings.TrimSpace(input)
	if _, rest, ok := strings.Cut(input, "/notebook/"); ok {
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	return input
}

// pending is what a run must be asked for: the requested kinds that are
// missing, plus unregistered names so the run reports them.
func (s *Service) pending(st artifacts.Status, requested []artifacts.Kind) []artifacts.Kind {
	out := st.MissingOf(requested)
	_, unknown := s.registry.Canonical(requested)
	return append(out, unknown...)
}

// available lists requested kinds that already exist.
func available(st artifacts.Status, requested []artifacts.Kind) []artifacts.Kind {
	var out []artifacts.Kind
	for _, k := range requested {
		if ks, ok := st.Kind(k); ok && ks.Available {
			out = append(out, k)
		}
	}
	return out
}
