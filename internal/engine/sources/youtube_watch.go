package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_notebook/internal/engine"
)

// fetchWatchPage reads metadata from the watch page meta tags.
func (y *YouTube) fetchWatchPage(ctx context.Context, videoID string) (VideoMetadata, error) {
	pageURL := y.baseURL + "/watch?v=" + videoID

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", y.hl+";q=0.9,en;q=0.8")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return y.client.Do(req)
	})
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return VideoMetadata{}, fmt.Errorf("watch page: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("read watch page: %w", err)
	}
	return parseWatchPage(body)
}

// parseWatchPage extracts title, channel, date and description from the
// Open Graph and schema.org tags of a watch page.
func parseWatchPage(page []byte) (VideoMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("parse watch page: %w", err)
	}
	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	m := VideoMetadata{
		Title:       meta(`meta[name="title"]`, `meta[property="og:title"]`),
		Channel:     meta(`span[itemprop="author"] link[itemprop="name"]`, `link[itemprop="name"]`),
		Description: meta(`meta[property="og:description"]`, `meta[name="description"]`),
		UploadDate:  normalizeDate(meta(`meta[itemprop="uploadDate"]`, `meta[itemprop="datePublished"]`)),
	}
	if m.Title == "" {
		m.Title = strings.TrimSpace(strings.TrimSuffix(doc.Find("title").First().Text(), "- YouTube"))
	}
	if m.Title == "" {
		return VideoMetadata{}, fmt.Errorf("watch page has no title")
	}
	return m, nil
}
