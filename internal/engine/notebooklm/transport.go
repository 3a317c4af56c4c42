package notebooklm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anatolykoptev/go_notebook/internal/engine"
)

// maxResponseBytes bounds a single RPC response.
const maxResponseBytes = 16 << 20

// Transport sends one HTTP request and returns the body and status code.
type Transport interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, int, error)
}

// StealthTransport sends requests through the go-stealth browser client so
// the TLS fingerprint matches Chrome.
type StealthTransport struct {
	Client *engine.BrowserClient
}

func (t StealthTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	return engine.BrowserDo(t.Client, method, url, headers, r)
}

// HTTPTransport sends requests with a plain net/http client.
type HTTPTransport struct {
	Client *http.Client
}

func (t HTTPTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// DefaultTransport prefers the configured browser client and falls back to
// the shared HTTP client.
func DefaultTransport() Transport {
	if engine.Cfg.BrowserClient != nil {
		return StealthTransport{Client: engine.Cfg.BrowserClient}
	}
	return HTTPTransport{Client: engine.Cfg.HTTPClient}
}
