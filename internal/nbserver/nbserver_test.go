package nbserver

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
	"github.com/anatolykoptev/go_notebook/internal/engine/flows"
	"github.com/anatolykoptev/go_notebook/internal/engine/notebooklm"
	"github.com/anatolykoptev/go_notebook/internal/engine/sources"
)

type stubClient struct {
	notebooks []notebooklm.Notebook
	records   map[artifacts.Kind][]artifacts.Record
	generated []artifacts.Kind
}

func (s *stubClient) ListArtifacts(_ context.Context, kind artifacts.Kind, _ string) ([]artifacts.Record, error) {
	return s.records[kind], nil
}

func (s *stubClient) ListRaw(context.Context, string) ([]artifacts.RawArtifact, error) {
	return nil, nil
}

func (s *stubClient) Generate(_ context.Context, kind artifacts.Kind, _ string, _ artifacts.GenerateParams) (*artifacts.GenerationStatus, error) {
	s.generated = append(s.generated, kind)
	return &artifacts.GenerationStatus{Status: artifacts.GenerationInProgress, TaskID: "t-" + string(kind)}, nil
}

func (s *stubClient) WaitForCompletion(context.Context, string, string) error { return nil }

func (s *stubClient) ListNotebooks(context.Context) ([]notebooklm.Notebook, error) {
	return append([]notebooklm.Notebook(nil), s.notebooks...), nil
}

func (s *stubClient) CreateNotebook(_ context.Context, title string) (notebooklm.Notebook, error) {
	return notebooklm.Notebook{ID: "created", Title: title}, nil
}

func (s *stubClient) AddSource(context.Context, string, string, bool, time.Duration) (notebooklm.Source, error) {
	return notebooklm.Source{ID: "src", Status: notebooklm.SourceReady}, nil
}

func (s *stubClient) ReportContent(context.Context, string) (artifacts.Record, string, error) {
	return artifacts.Record{}, "", notebooklm.ErrNoReport
}

type stubVideos struct{}

func (stubVideos) FetchVideoMetadata(_ context.Context, rawURL string) (sources.VideoMetadata, error) {
	id, err := sources.ExtractVideoID(rawURL)
	if err != nil {
		return sources.VideoMetadata{}, err
	}
	return sources.VideoMetadata{VideoID: id, Title: "Talk", Channel: "Conf", UploadDate: "2026-02-01"}, nil
}

func newHandlers(c *stubClient) *handlers {
	svc := flows.NewService(c, stubVideos{},
		flows.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		flows.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	return &handlers{svc: svc, videos: stubVideos{}}
}

func TestRegisterTools(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	assert.NotPanics(t, func() { RegisterTools(server, newHandlers(&stubClient{}).svc, stubVideos{}) })
}

func TestNotebookList(t *testing.T) {
	h := newHandlers(&stubClient{notebooks: []notebooklm.Notebook{
		{ID: "b", Title: "Beta", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "a", Title: "alpha"},
	}})

	_, out, err := h.notebookList(context.Background(), nil, NotebookListInput{SortBy: "name"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "a", out.Notebooks[0].ID)
	assert.Equal(t, "https://notebooklm.google.com/notebook/a", out.Notebooks[0].URL)
	assert.Empty(t, out.Notebooks[0].CreatedAt)
	assert.Equal(t, "2026-01-02T03:04:05Z", out.Notebooks[1].CreatedAt)

	_, _, err = h.notebookList(context.Background(), nil, NotebookListInput{SortBy: "stars"})
	assert.Error(t, err)
}

func TestNotebookStatus(t *testing.T) {
	c := &stubClient{
		notebooks: []notebooklm.Notebook{{ID: "nb1"}},
		records: map[artifacts.Kind][]artifacts.Record{
			artifacts.KindAudio: {{ID: "au", Title: "Deep dive", Kind: artifacts.KindAudio}},
		},
	}
	h := newHandlers(c)

	_, out, err := h.notebookStatus(context.Background(), nil, NotebookStatusInput{Notebook: "nb1"})
	require.NoError(t, err)
	res, ok := out.(*flows.InspectResult)
	require.True(t, ok)
	assert.False(t, res.Status.IsMissing(artifacts.KindAudio))
	assert.Contains(t, res.Summary, "✓ Audio summary: Deep dive")
	assert.Empty(t, c.generated)

	_, _, err = h.notebookStatus(context.Background(), nil, NotebookStatusInput{})
	assert.EqualError(t, err, "notebook is required")

	_, _, err = h.notebookStatus(context.Background(), nil, NotebookStatusInput{Notebook: "missing"})
	assert.ErrorIs(t, err, notebooklm.ErrNotebookNotFound)
}

func TestNotebookGenerate(t *testing.T) {
	c := &stubClient{
		notebooks: []notebooklm.Notebook{{ID: "nb1"}},
		records: map[artifacts.Kind][]artifacts.Record{
			artifacts.KindQuiz: {{ID: "q", Kind: artifacts.KindQuiz}},
		},
	}
	h := newHandlers(c)

	_, out, err := h.notebookGenerate(context.Background(), nil, NotebookGenerateInput{
		Notebook: "https://notebooklm.google.com/notebook/nb1",
		Kinds:    []string{"quiz, slides", "podcast"},
	})
	require.NoError(t, err)
	res := out.(*flows.InspectResult)
	assert.Equal(t, []artifacts.Kind{artifacts.KindQuiz}, res.Existing)
	assert.Equal(t, []artifacts.Kind{artifacts.KindSlides}, c.generated)
	require.NotNil(t, res.Generation)
	assert.Equal(t, []artifacts.Kind{"podcast"}, res.Generation.Unknown)

	_, _, err = h.notebookGenerate(context.Background(), nil, NotebookGenerateInput{Notebook: "nb1"})
	assert.EqualError(t, err, "kinds is required")
}

func TestNotebookReport(t *testing.T) {
	h := newHandlers(&stubClient{})
	_, _, err := h.notebookReport(context.Background(), nil, NotebookReportInput{Notebook: "nb1"})
	assert.ErrorIs(t, err, notebooklm.ErrNoReport)
}

func TestYouTubeTools(t *testing.T) {
	c := &stubClient{}
	h := newHandlers(c)

	_, meta, err := h.youtubeMetadata(context.Background(), nil, YouTubeMetadataInput{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "YT-dQw4w9WgXcQ", meta.NotebookPrefix)
	assert.Equal(t, "YT-dQw4w9WgXcQ - Talk - 2026-02-01 - Conf", meta.NotebookName)

	_, out, err := h.youtubeImport(context.Background(), nil, YouTubeImportInput{
		URL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Kinds: []string{"mind-map"},
	})
	require.NoError(t, err)
	res := out.(*flows.ImportResult)
	assert.True(t, res.Created)
	assert.Equal(t, []artifacts.Kind{artifacts.KindMindMap}, c.generated)

	_, _, err = h.youtubeImport(context.Background(), nil, YouTubeImportInput{URL: "https://vimeo.com/1"})
	assert.ErrorIs(t, err, sources.ErrInvalidVideoURL)
}

func TestStatusLanguageDescribesFilteredKinds(t *testing.T) {
	field, ok := reflect.TypeFor[NotebookStatusInput]().FieldByName("Language")
	require.True(t, ok)
	desc := field.Tag.Get("jsonschema")

	for _, spec := range artifacts.DefaultSpecs {
		name := strings.ToLower(spec.DisplayName)
		if spec.LanguageFiltered {
			assert.Contains(t, strings.ToLower(desc), strings.Fields(name)[0], "%s is language filtered", spec.Kind)
		} else {
			assert.NotContains(t, strings.ToLower(desc), name, "%s is not language filtered", spec.Kind)
		}
	}
}
