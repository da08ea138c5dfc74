// Package backend provides the HTTP adapter for the retrieval-augmented
// answering backend: questions, streamed answers, documents and accounts.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure Client implements the interfaces.
var (
	_ driven.QueryClient = (*Client)(nil)
	_ driven.PaperClient = (*Client)(nil)
	_ driven.AuthClient  = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL      = domain.DefaultBackendURL
	DefaultQueryPath    = domain.DefaultQueryPath
	DefaultStreamPath   = "/reasoning"
	DefaultPapersPath   = "/papers"
	DefaultUploadPath   = "/upload"
	DefaultDownloadPath = "/upload/{id}"
	DefaultHealthPath   = "/health"
	DefaultTimeout      = domain.DefaultTimeoutSeconds * time.Second
)

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend base URL (default: http://localhost:8000).
	BaseURL string

	// QueryPath answers a question in one response (default: /query).
	QueryPath string

	// StreamPath answers a question as server-sent events (default: /reasoning).
	StreamPath string

	// PapersPath lists documents (default: /papers).
	PapersPath string

	// UploadPath accepts multipart uploads (default: /upload).
	UploadPath string

	// DownloadPath serves document bytes. {id} is replaced by the
	// escaped document id (default: /upload/{id}).
	DownloadPath string

	// HealthPath is used by Ping (default: /health).
	HealthPath string

	// Timeout bounds non-streaming requests (default: 120s).
	Timeout time.Duration

	// RateLimit configures proactive client-side rate limiting.
	RateLimit RateLimitConfig

	// Tokens optionally authorises question requests. Document and
	// account calls take their token explicitly.
	Tokens oauth2.TokenSource

	// HTTPClient overrides the transport. Its timeout is not changed.
	HTTPClient *http.Client
}

// ConfigFromSettings builds a client config from application settings.
func ConfigFromSettings(s domain.BackendSettings) Config {
	return Config{
		BaseURL:    s.URL,
		QueryPath:  s.QueryPath,
		StreamPath: s.StreamPath,
		Timeout:    s.Timeout(),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: s.RatePerSecond,
			BurstSize:         s.Burst,
		},
	}
}

// Client talks to the backend over HTTP.
type Client struct {
	client  *http.Client
	stream  *http.Client
	limiter *RateLimiter
	cfg     Config
}

// NewClient creates a new backend client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.QueryPath == "" {
		cfg.QueryPath = DefaultQueryPath
	}
	if cfg.StreamPath == "" {
		cfg.StreamPath = DefaultStreamPath
	}
	if cfg.PapersPath == "" {
		cfg.PapersPath = DefaultPapersPath
	}
	if cfg.UploadPath == "" {
		cfg.UploadPath = DefaultUploadPath
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = DefaultDownloadPath
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = DefaultHealthPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		limiter: NewRateLimiter(cfg.RateLimit),
		cfg:     cfg,
	}
	if cfg.HTTPClient != nil {
		c.client = cfg.HTTPClient
		c.stream = cfg.HTTPClient
	} else {
		c.client = &http.Client{Timeout: cfg.Timeout}
		// Streams last as long as the answer takes; ctx bounds them.
		c.stream = &http.Client{}
	}
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(
	ctx context.Context,
	method, path string,
	query url.Values,
	body io.Reader,
) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// authorize sets the bearer header from an explicit token or, when empty,
// from the configured token source. A missing token is not an error here;
// the backend decides whether the route needs one.
func (c *Client) authorize(req *http.Request, token string) {
	if token == "" && c.cfg.Tokens != nil {
		tok, err := c.cfg.Tokens.Token()
		if err != nil {
			logger.Debug("backend: no token for %s: %v", req.URL.Path, err)
			return
		}
		tok.SetAuthHeader(req)
		return
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
}

// do waits for the rate limiter, sends the request and converts failures
// into *driven.BackendError. The caller closes the body of a nil-error response.
func (c *Client) do(client *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &driven.BackendError{Kind: driven.BackendNetwork, Err: err}
	}
	logger.Debug("backend: %s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, c.statusError(resp)
	}
	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	c.stream.CloseIdleConnections()
	return nil
}
