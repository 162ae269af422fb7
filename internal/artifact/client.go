// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultUserAgent is used when WithUserAgent is not given.
const DefaultUserAgent = "omtap"

type (
	// Client fetches artifacts over HTTP.
	Client struct {
		httpClient   *http.Client
		userAgent    string
		token        string
		trustedHosts []string
		progress     io.Writer
		logger       *log.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// HTTPStatusError is returned when the server answers with a non-200 status.
	HTTPStatusError struct {
		URL        string
		StatusCode int
		Status     string
	}

	// RateLimitError is returned when GitHub reports an exhausted quota.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}
)

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("downloading %s: unexpected status %s", e.URL, e.Status)
}

// Temporary reports whether retrying could succeed: 5xx and 429 responses.
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithToken sets a GitHub token. It is only sent to GitHub hosts and to
// hosts added with WithTrustedHosts.
func WithToken(token string) ClientOption {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithTrustedHosts adds hosts (host or host:port) that may receive the token.
func WithTrustedHosts(hosts ...string) ClientOption {
	return func(cl *Client) {
		cl.trustedHosts = append(cl.trustedHosts, hosts...)
	}
}

// WithProgress draws a byte progress bar on w while downloading. A nil w
// disables it.
func WithProgress(w io.Writer) ClientOption {
	return func(cl *Client) {
		cl.progress = w
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client. Defaults: http.DefaultClient, DefaultUserAgent,
// no token, no progress output and a discarding logger.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open issues a GET for rawURL and returns the response body together with
// the advertised content length (-1 when unknown). The caller must close it.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request for %s: %w", redactURL(rawURL), err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/octet-stream")
	if c.token != "" && c.isTrustedHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("requesting artifact", "url", redactURL(rawURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}

	if rlErr := checkRateLimit(resp); rlErr != nil {
		_ = resp.Body.Close()
		return nil, 0, rlErr
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, &HTTPStatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return resp.Body, resp.ContentLength, nil
}

// isTrustedHost reports whether the token may be attached to a request for u.
func (c *Client) isTrustedHost(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	if host == "github.com" || host == "api.github.com" {
		return u.Scheme == "https"
	}
	for _, h := range c.trustedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// checkRateLimit returns a RateLimitError when X-RateLimit-Remaining is zero.
// It only inspects headers, never the status code.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.

	return &RateLimitError{Limit: limit, Remaining: 0, ResetAt: time.Unix(resetUnix, 0)}
}

// redactURL strips query parameters and fragments, which may carry signed
// tokens, before a URL reaches an error message or a log line.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
