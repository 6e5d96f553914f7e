// Package content fetches document markup from the remote content service.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/slidegest/internal/cache"
	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

// maxDocumentBytes bounds a single document body.
const maxDocumentBytes = 32 << 20

// StatusError is a non-200 response from the content service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content service status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// Retryable reports whether the status is transient.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// FetchError reports a document that could not be fetched. The live server
// answers it with 502; the offline builder treats it as fatal.
type FetchError struct {
	Loc      doctree.Location
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: gave up after %d attempt(s): %v", e.Loc, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration // per attempt
	Retries int           // total attempts
	Backoff time.Duration // base backoff
	Cache   cache.Store[string, string]
	Stats   *FetchStats
	Logger  *slog.Logger
}

// Client fetches and memoizes document markup by URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Store[string, string]
	stats      *FetchStats
	log        *slog.Logger
	timeout    time.Duration
	retries    int
	backoff    time.Duration
	inflight   singleflight.Group
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 5
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory[string, string](0)
	}
	if opts.Stats == nil {
		opts.Stats = NewFetchStats(time.Hour)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		cache:      opts.Cache,
		stats:      opts.Stats,
		log:        opts.Logger,
		timeout:    opts.Timeout,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
	}
}

// URL returns the content service URL for loc.
func (c *Client) URL(loc doctree.Location) string {
	return c.baseURL + markup.DocumentPath(loc)
}

// Stats returns the client's latency window.
func (c *Client) Stats() *FetchStats {
	return c.stats
}

// Fetch returns the raw markup for loc. Each attempt is bounded by the
// configured timeout; failed attempts are retried with backoff. Successful
// responses are cached by URL.
func (c *Client) Fetch(ctx context.Context, loc doctree.Location) (string, error) {
	u := c.URL(loc)
	if body, ok := c.cache.Get(u); ok {
		return body, nil
	}

	v, err, _ := c.inflight.Do(u, func() (any, error) {
		body, err := c.fetchWithRetry(ctx, loc, u)
		if err != nil {
			return "", err
		}
		c.cache.Put(u, body)
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Document fetches loc and parses it. Every call returns a fresh tree.
func (c *Client) Document(ctx context.Context, loc doctree.Location) (*html.Node, error) {
	raw, err := c.Fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	return markup.Parse(raw, loc.Path)
}

func (c *Client) fetchWithRetry(ctx context.Context, loc doctree.Location, u string) (string, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < c.retries; attempt++ {
		attempts++
		body, err := c.fetchOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) || attempt == c.retries-1 {
			break
		}
		wait := Backoff(c.backoff, attempt)
		c.log.Warn("fetch failed, retrying", "url", u, "attempt", attempt+1, "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}
	return "", &FetchError{Loc: loc, URL: u, Attempts: attempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, u string) (body string, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() { c.stats.Record(time.Since(start), err != nil) }()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.log.Debug("fetching document", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{StatusCode: resp.StatusCode, Message: string(msg)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if len(data) > maxDocumentBytes {
		return "", errors.New("document exceeds size limit")
	}
	return string(data), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
