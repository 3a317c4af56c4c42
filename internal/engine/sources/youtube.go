package sources

// YouTube metadata is split across three files by responsibility:
//   youtube.go            — video id parsing, metadata type, notebook naming, cached lookup
//   youtube_innertube.go  — Innertube player endpoint (primary source)
//   youtube_watch.go      — watch page meta tags via goquery (fallback)

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"

	"github.com/anatolykoptev/go_notebook/internal/engine"
)

// ErrInvalidVideoURL is returned when no video id can be read from a URL.
var ErrInvalidVideoURL = errors.New("invalid YouTube video URL")

// UnknownDate is the upload date used when YouTube does not report one.
const UnknownDate = "unknown-date"

const (
	nameTitleMax   = 60
	nameChannelMax = 30
	namePrefix     = "YT-"
)

var videoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID pulls the 11-char video ID from watch, youtu.be, embed and
// shorts URLs.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVideoURL, err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/embed/"))
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/shorts/"))
		case strings.HasPrefix(u.Path, "/live/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/live/"))
		}
	case "youtu.be":
		id = firstSegment(strings.TrimPrefix(u.Path, "/"))
	}
	if !videoIDRE.MatchString(id) {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoURL, rawURL)
	}
	return id, nil
}

func firstSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// WatchURL is the canonical watch URL of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// VideoMetadata describes one YouTube video.
type VideoMetadata struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	UploadDate  string `json:"upload_date"` // YYYY-MM-DD or UnknownDate
	Description string `json:"description,omitempty"`
}

func (m *VideoMetadata) fillDefaults() {
	if m.Title == "" {
		m.Title = "Untitled"
	}
	if m.Channel == "" {
		m.Channel = "Unknown channel"
	}
	if m.UploadDate == "" {
		m.UploadDate = UnknownDate
	}
}

// NotebookPrefix is the title prefix shared by every notebook of a video.
func NotebookPrefix(videoID string) string {
	return namePrefix + videoID
}

// NotebookName builds "YT-<id> - <title> - <date> - <channel>".
func NotebookName(m VideoMetadata) string {
	return fmt.Sprintf("%s - %s - %s - %s",
		NotebookPrefix(m.VideoID),
		cleanNamePart(m.Title, nameTitleMax),
		m.UploadDate,
		cleanNamePart(m.Channel, nameChannelMax))
}

// cleanNamePart strips unsafe characters and cuts at the last space before
// max runes, appending "...".
func cleanNamePart(s string, max int) string {
	s = engine.StripUnsafeNameChars(s)
	if utf8.RuneCountInString(s) > max {
		cut := string([]rune(s)[:max])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		s = cut + "..."
	}
	return strings.TrimSpace(s)
}

// normalizeDate accepts YYYY-MM-DD, RFC 3339 and YYYYMMDD forms.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownDate
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return UnknownDate
}

// YouTube fetches video metadata.
type YouTube struct {
	client   *http.Client
	baseURL  string
	hl       string
	logger   *slog.Logger
	useCache bool
}

// YouTubeOption configures a YouTube fetcher.
type YouTubeOption func(*YouTube)

// WithHTTPClient replaces the cookie-jar HTTP client.
func WithHTTPClient(c *http.Client) YouTubeOption { return func(y *YouTube) { y.client = c } }

// WithYouTubeBaseURL points requests at another host, mostly for tests.
func WithYouTubeBaseURL(u string) YouTubeOption {
	return func(y *YouTube) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithYouTubeLogger sets the logger.
func WithYouTubeLogger(l *slog.Logger) YouTubeOption { return func(y *YouTube) { y.logger = l } }

// WithoutCache disables the engine cache.
func WithoutCache() YouTubeOption { return func(y *YouTube) { y.useCache = false } }

// NewYouTube creates a metadata fetcher. The default HTTP client keeps
// cookies so the consent redirect is answered once per process.
func NewYouTube(opts ...YouTubeOption) *YouTube {
	y := &YouTube{
		baseURL:  "https://www.youtube.com",
		hl:       "en",
		logger:   slog.Default(),
		useCache: true,
	}
	if engine.Cfg.YouTubeHL != "" {
		y.hl = engine.Cfg.YouTubeHL
	}
	for _, o := range opts {
		o(y)
	}
	if y.client == nil {
		y.client = newCookieClient()
	}
	return y
}

func newCookieClient() *http.Client {
	timeout := engine.Cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return &http.Client{Timeout: timeout}
	}
	consent, _ := url.Parse("https://www.youtube.com/")
	jar.SetCookies(consent, []*http.Cookie{{Name: "SOCS", Value: "CAI", Path: "/", Domain: ".youtube.com"}})
	return &http.Client{Timeout: timeout, Jar: jar}
}

// FetchVideoMetadata looks up a video by URL. Innertube is tried first and
// the watch page is the fallback.
func (y *YouTube) FetchVideoMetadata(ctx context.Context, rawURL string) (VideoMetadata, error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return VideoMetadata{}, err
	}
	key := engine.CacheKey("yt-meta", id)
	if y.useCache {
		if m, ok := engine.CacheLoadJSON[VideoMetadata](ctx, key); ok {
			return m, nil
		}
	}

	meta, err := y.fetchInnertube(ctx, id)
	if err != nil {
		y.logger.Debug("youtube: innertube lookup failed, trying watch page",
			slog.String("video", id), slog.Any("error", err))
		var werr error
		meta, werr = y.fetchWatchPage(ctx, id)
		if werr != nil {
			engine.IncrYouTubeMetadataError()
			return VideoMetadata{}, fmt.Errorf("video metadata %s: %w", id, errors.Join(err, werr))
		}
	}
	meta.VideoID = id
	meta.fillDefaults()
	engine.IncrYouTubeMetadata()
	if y.useCache {
		engine.CacheStoreJSON(ctx, key, meta)
	}
	y.logger.Info("youtube: metadata fetched", slog.String("video", id), slog.String("channel", meta.Channel))
	return meta, nil
}

// FetchVideoMetadata looks up a video with a default fetcher.
func FetchVideoMetadata(ctx context.Context, rawURL string) (VideoMetadata, error) {
	return NewYouTube().FetchVideoMetadata(ctx, rawURL)
}
