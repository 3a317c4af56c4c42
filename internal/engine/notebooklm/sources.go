package notebooklm

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultSourceTimeout = 2 * time.Minute

func isYouTubeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	h := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return h == "youtube.com" || h == "m.youtube.com" || h == "youtu.be" || h == "music.youtube.com"
}

func sourceParams(notebookID, sourceURL string) []any {
	var entry []any
	if isYouTubeURL(sourceURL) {
		entry = []any{nil, nil, nil, nil, nil, nil, nil, []any{sourceURL}, nil, nil, 1}
	} else {
		entry = []any{nil, nil, []any{sourceURL}, nil, nil, nil, nil, nil, nil, nil, 1}
	}
	return []any{
		[]any{entry},
		notebookID,
		[]any{2},
		[]any{1, nil, nil, nil, nil, nil, nil, nil, nil, nil, []any{1}},
	}
}

// AddSource attaches a URL (YouTube videos included) to a notebook. With
// wait set it blocks until the source is processed or timeout elapses, in
// which case the source is returned together with ErrSourceTimeout.
func (c *Client) AddSource(ctx context.Context, notebookID, sourceURL string, wait bool, timeout time.Duration) (Source, error) {
	v, err := c.call(ctx, RPCAddSource, sourceParams(notebookID, sourceURL), notebookPath(notebookID))
	if err != nil {
		return Source{}, fmt.Errorf("add source: %w", err)
	}
	src, ok := parseSource(v.Path(0, 0))
	if !ok {
		return Source{}, fmt.Errorf("add source: %w", ErrEmptyResponse)
	}
	src.Status = SourceProcessing
	c.logger.Info("notebooklm: source added", slog.String("notebook", notebookID), slog.String("source", src.ID))
	if !wait {
		return src, nil
	}
	return c.WaitForSource(ctx, notebookID, src.ID, timeout)
}

// WaitForSource polls the notebook until the source is ready.
func (c *Client) WaitForSource(ctx context.Context, notebookID, sourceID string, timeout time.Duration) (Source, error) {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	last := Source{ID: sourceID, Status: SourceProcessing}
	err := c.poll(ctx, timeout, ErrSourceTimeout, func() (bool, error) {
		d, err := c.GetNotebook(ctx, notebookID)
		if err != nil {
			return false, err
		}
		for _, s := range d.Sources {
			if s.ID != sourceID {
				continue
			}
			last = s
			switch s.Status {
			case SourceReady:
				return true, nil
			case SourceError:
				return false, backoff.Permanent(fmt.Errorf("%w: %s", ErrSourceFailed, s.Title))
			}
		}
		return false, nil
	})
	return last, err
}
