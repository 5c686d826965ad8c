package sefaria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// Defaults used when an Option does not override them.
const (
	DefaultAPIBaseURL    = "https://www.sefaria.org"
	DefaultAIBaseURL     = "https://ai.sefaria.org"
	DefaultTimeout       = 30 * time.Second
	DefaultUserAgent     = "sefaria-mcp"
	DefaultMaxImageBytes = 1024 * 1024

	// maxResponseBytes caps how much of any single upstream response is read.
	maxResponseBytes = 64 << 20
)

// Client talks to the Sefaria API and the Sefaria AI service.
//
// A Client is safe for concurrent use. Identical GET requests that are in
// flight at the same time are collapsed into one upstream request.
type Client struct {
	apiBase       string
	aiBase        string
	userAgent     string
	maxImageBytes int

	httpClient *http.Client

	// getGroup deduplicates concurrent GETs of the same URL
	getGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBaseURL sets the base URL of the Sefaria API.
func WithAPIBaseURL(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithAIBaseURL sets the base URL of the Sefaria AI service.
func WithAIBaseURL(base string) Option {
	return func(c *Client) { c.aiBase = strings.TrimRight(base, "/") }
}

// WithTimeout sets the timeout of every upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxImageBytes sets the size above which manuscript images are
// downscaled.
func WithMaxImageBytes(n int) Option {
	return func(c *Client) { c.maxImageBytes = n }
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:       DefaultAPIBaseURL,
		aiBase:        DefaultAIBaseURL,
		userAgent:     DefaultUserAgent,
		maxImageBytes: DefaultMaxImageBytes,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIBaseURL returns the configured Sefaria API base URL.
func (c *Client) APIBaseURL() string {
	return c.apiBase
}

// AIBaseURL returns the configured AI service base URL.
func (c *Client) AIBaseURL() string {
	return c.aiBase
}

// apiURL joins the API base, a path prefix and an escaped name. Slashes in
// name are kept as path separators.
func (c *Client) apiURL(prefix, name string, query url.Values) string {
	u := c.apiBase + prefix + escapePath(name)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// escapePath escapes every segment of p.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// response is a fully read upstream response.
type response struct {
	body        []byte
	contentType string
}

// get fetches rawURL. Concurrent calls for the same URL share one request;
// the returned body must not be modified.
func (c *Client) get(ctx context.Context, log api.LogSink, rawURL string) (*response, error) {
	log.Debug("GET %s", rawURL)
	v, err, shared := c.getGroup.Do(rawURL, func() (interface{}, error) {
		return c.do(ctx, http.MethodGet, rawURL, nil)
	})
	if shared {
		log.Debug("shared in-flight request for %s", rawURL)
	}
	if err != nil {
		return nil, err
	}
	return v.(*response), nil
}

// getJSON fetches rawURL and decodes the JSON body. Numbers are kept as
// json.Number so they are re-encoded exactly as received.
func (c *Client) getJSON(ctx context.Context, log api.LogSink, rawURL string) (interface{}, error) {
	resp, err := c.get(ctx, log, rawURL)
	if err != nil {
		return nil, err
	}
	return decodeJSON(rawURL, resp.body)
}

// postJSON sends payload as JSON and decodes the JSON answer. POSTs are
// never deduplicated.
func (c *Client) postJSON(ctx context.Context, log api.LogSink, rawURL string, payload interface{}) (interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", rawURL, err)
	}
	log.Debug("POST %s %s", rawURL, body)

	resp, err := c.do(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return nil, err
	}
	return decodeJSON(rawURL, resp.body)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Method: method, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Method: method, URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody] + "..."
		}
		return nil, &UpstreamError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       strings.ToValidUTF8(snippet, ""),
		}
	}

	return &response{body: data, contentType: resp.Header.Get("Content-Type")}, nil
}

func decodeJSON(rawURL string, data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{URL: rawURL, Err: err}
	}
	return v, nil
}
