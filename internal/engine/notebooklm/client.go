// Package notebooklm is a client for the NotebookLM web app's batchexecute
// RPC endpoint. It authenticates with browser cookies exported to a
// Playwright storage_state.json file.
package notebooklm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_notebook/internal/engine"
	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

const (
	DefaultBaseURL = "https://notebooklm.google.com"
	batchPath      = "/_/LabsTailwindUi/data/batchexecute"

	defaultPollInterval      = 5 * time.Second
	defaultCompletionTimeout = 10 * time.Minute
	defaultRPCInterval       = 500 * time.Millisecond
)

// Client talks to one NotebookLM account.
type Client struct {
	transport         Transport
	baseURL           string
	cookies           string
	hl                string
	limiter           *rate.Limiter
	logger            *slog.Logger
	pollInterval      time.Duration
	completionTimeout time.Duration
	newBackOff        func() backoff.BackOff
	maxTries          uint

	mu     sync.Mutex
	tokens *sessionTokens
	reqID  atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the HTTP transport.
func WithTransport(t Transport) Option { return func(c *Client) { c.transport = t } }

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLimiter replaces the RPC pacing limiter.
func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithPollInterval sets how often source and artifact status is polled.
func WithPollInterval(d time.Duration) Option { return func(c *Client) { c.pollInterval = d } }

// WithCompletionTimeout bounds WaitForCompletion.
func WithCompletionTimeout(d time.Duration) Option {
	return func(c *Client) { c.completionTimeout = d }
}

// WithInterfaceLanguage sets the hl query parameter.
func WithInterfaceLanguage(hl string) Option { return func(c *Client) { c.hl = hl } }

// WithRetryBackOff sets the backoff policy for transient RPC failures.
func WithRetryBackOff(fn func() backoff.BackOff, maxTries uint) Option {
	return func(c *Client) {
		c.newBackOff = fn
		c.maxTries = maxTries
	}
}

// WithSessionTokens skips the home page scrape.
func WithSessionTokens(csrf, sessionID, build string) Option {
	return func(c *Client) {
		c.tokens = &sessionTokens{CSRF: csrf, SessionID: sessionID, Build: build}
	}
}

// New creates a client authenticated with a Cookie header value.
func New(cookieHeader string, opts ...Option) *Client {
	c := &Client{
		baseURL:           DefaultBaseURL,
		cookies:           cookieHeader,
		hl:                "en",
		limiter:           rate.NewLimiter(rate.Every(defaultRPCInterval), 2),
		logger:            slog.Default(),
		pollInterval:      defaultPollInterval,
		completionTimeout: defaultCompletionTimeout,
		maxTries:          3,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 1 * time.Second
			bo.MaxInterval = 10 * time.Second
			return bo
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.transport == nil {
		c.transport = DefaultTransport()
	}
	return c
}

// NewFromStorageState loads cookies from a storage_state.json file.
func NewFromStorageState(path string, opts ...Option) (*Client, error) {
	st, err := LoadStorageState(path)
	if err != nil {
		return nil, err
	}
	header, err := st.CookieHeader(time.Now())
	if err != nil {
		return nil, err
	}
	return New(header, opts...), nil
}

// FromConfig builds a client from the engine configuration.
func FromConfig(logger *slog.Logger) (*Client, error) {
	c := engine.Cfg
	opts := []Option{WithLogger(logger)}
	if c.PollInterval > 0 {
		opts = append(opts, WithPollInterval(c.PollInterval))
	}
	if c.CompletionTimeout > 0 {
		opts = append(opts, WithCompletionTimeout(c.CompletionTimeout))
	}
	if c.RPCInterval > 0 {
		burst := c.RPCBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, WithLimiter(rate.NewLimiter(rate.Every(c.RPCInterval), burst)))
	}
	return NewFromStorageState(c.StorageStatePath, opts...)
}

func (c *Client) headers() map[string]string {
	h := engine.ChromeHeaders()
	h["cookie"] = c.cookies
	h["origin"] = c.baseURL
	h["referer"] = c.baseURL + "/"
	return h
}

// session returns the cached session tokens, scraping them on first use.
func (c *Client) session(ctx context.Context) (sessionTokens, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens != nil {
		return *c.tokens, nil
	}

	page, err := engine.RetryDo(ctx, engine.DefaultRetryConfig, func() ([]byte, error) {
		data, status, err := c.transport.Do(ctx, http.MethodGet, c.baseURL+"/", c.headers(), nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("notebooklm home status %d", status)
		}
		return data, nil
	})
	if err != nil {
		return sessionTokens{}, fmt.Errorf("fetch session tokens: %w", err)
	}
	t, err := parseSessionTokens(page)
	if err != nil {
		return sessionTokens{}, err
	}
	c.tokens = &t
	c.logger.Debug("notebooklm: session tokens loaded", slog.Bool("has_sid", t.SessionID != ""))
	return t, nil
}

// call runs one RPC and returns its decoded payload.
func (c *Client) call(ctx context.Context, rpcID string, params any, sourcePath string) (artifacts.Value, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return artifacts.Null, err
	}
	tok, err := c.session(ctx)
	if err != nil {
		return artifacts.Null, err
	}
	body, err := encodeRPCBody(rpcID, params, tok.CSRF)
	if err != nil {
		return artifacts.Null, err
	}

	q := url.Values{}
	q.Set("rpcids", rpcID)
	q.Set("source-path", sourcePath)
	if tok.SessionID != "" {
		q.Set("f.sid", tok.SessionID)
	}
	if tok.Build != "" {
		q.Set("bl", tok.Build)
	}
	q.Set("hl", c.hl)
	q.Set("_reqid", strconv.FormatInt(100000+c.reqID.Add(1)*100000, 10))
	q.Set("rt", "c")
	endpoint := c.baseURL + batchPath + "?" + q.Encode()

	headers := c.headers()
	headers["content-type"] = "application/x-www-form-urlencoded;charset=UTF-8"
	headers["x-same-domain"] = "1"

	engine.IncrRPCCall()
	operation := func() ([]byte, error) {
		data, status, err := c.transport.Do(ctx, http.MethodPost, endpoint, headers, body)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusOK:
			return data, nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, backoff.Permanent(fmt.Errorf("%w: rpc %s http %d", ErrNotAuthenticated, rpcID, status))
		case status == http.StatusTooManyRequests:
			return nil, backoff.Permanent(&RPCError{RPCID: rpcID, HTTPStatus: status})
		case engine.IsRetryableStatus(status):
			return nil, &RPCError{RPCID: rpcID, HTTPStatus: status}
		default:
			return nil, backoff.Permanent(&RPCError{RPCID: rpcID, HTTPStatus: status, Message: snippet(data)})
		}
	}
	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(time.Minute))
	if err != nil {
		c.countError(err)
		return artifacts.Null, err
	}

	v, err := decodeRPCResponse(data, rpcID)
	if err != nil {
		c.countError(err)
		return artifacts.Null, err
	}
	c.logger.Debug("notebooklm: rpc ok", slog.String("rpc", rpcID), slog.String("path", sourcePath), slog.Int("bytes", len(data)))
	return v, nil
}

func (c *Client) countError(err error) {
	engine.IncrRPCError()
	if IsRateLimited(err) {
		engine.IncrRPCRateLimited()
	}
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n]
	}
	return s
}

// poll calls check every pollInterval until it reports done, fails with a
// permanent error, or timeout elapses. Other errors count as not done yet.
// A timeout returns errTimeout.
func (c *Client) poll(ctx context.Context, timeout time.Duration, errTimeout error, check func() (bool, error)) error {
	errPending := errors.New("pending")
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		done, err := check()
		var perm *backoff.PermanentError
		switch {
		case errors.As(err, &perm):
			return struct{}{}, err
		case err != nil:
			c.logger.Debug("notebooklm: poll failed, retrying", slog.Any("error", err))
			return struct{}{}, errPending
		case !done:
			return struct{}{}, errPending
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewConstantBackOff(c.pollInterval)), backoff.WithMaxElapsedTime(timeout))
	if errors.Is(err, errPending) {
		return errTimeout
	}
	return err
}

func notebookPath(id string) string { return "/notebook/" + id }
