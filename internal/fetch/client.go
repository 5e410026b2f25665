package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mlhub-labs/mlhub/internal/logging"
)

// UserAgent is sent with every request. Some hosts answer 403 to clients
// without a browser-like agent.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/81.0.4044.138 Safari/537.36"

var (
	// ErrURLAccess is returned when a URL answers with a non-200 status.
	ErrURLAccess = errors.New("cannot access url")

	// ErrDownloadHalt is returned when a transfer breaks off.
	ErrDownloadHalt = errors.New("download halted")
)

// Client performs HTTP requests on behalf of the CLI.
type Client struct {
	httpClient *http.Client
	progress   io.Writer
	logger     *log.Logger
	driveBase  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithProgress sets where download percentages are written. Nil disables.
func WithProgress(w io.Writer) Option {
	return func(cl *Client) {
		cl.progress = w
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithDriveBase sets where Google Drive downloads are requested.
func WithDriveBase(base string) Option {
	return func(cl *Client) {
		cl.driveBase = strings.TrimRight(base, "/")
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     logging.Discard(),
		driveBase:  "https://" + DriveHost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	c.logger.Debug("http request", "method", method, "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", url, ErrURLAccess, err)
	}
	c.logger.Debug("http response", "url", url, "status", resp.StatusCode)
	return resp, nil
}

// Silent returns a copy of c that reports no download progress, for
// transfers running side by side.
func (c *Client) Silent() *Client {
	cp := *c
	cp.progress = nil
	return &cp
}

// Get returns the body of url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w (status %d)", url, ErrURLAccess, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", url, ErrDownloadHalt, err)
	}
	return body, nil
}

// Exists reports whether url answers 200.
func (c *Client) Exists(ctx context.Context, url string) bool {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
