// Package transport performs authenticated calls to the data platform. It
// owns the per-call timeout, the retry-once-on-401 policy and the mapping of
// transport failures to typed errors.
package transport

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// TokenSource hands out access tokens. ForceRefresh is called after the
// upstream rejected a token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// Recorder receives one observation per upstream attempt.
type Recorder interface {
	Upstream(operation string, status int, elapsed time.Duration)
}

// RequestFunc builds a fresh request for each attempt, since a body can
// only be sent once.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client provides HTTP client functionality with authentication.
type Client struct {
	http     *http.Client
	auth     Authenticator
	tokens   TokenSource
	timeout  time.Duration
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the bound for a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAuthenticator replaces the default token scheme.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// New creates a transport client drawing tokens from tokens.
func New(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		http:    NewHTTPClient(0),
		auth:    OAuthTokenAuth(),
		tokens:  tokens,
		timeout: constants.ReportTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns an http.Client with dial and TLS handshake bounds.
// timeout is the overall client timeout; zero leaves it to the context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Do runs an authenticated call. A 401 answer triggers one forced token
// refresh and one retry; a second 401 is returned as an UpstreamError.
func (c *Client) Do(ctx context.Context, operation string, build RequestFunc) (*Response, error) {
	ctx = logging.WithOperation(ctx, operation)
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.attempt(ctx, operation, token, build)
	if err == nil || !errors.IsUnauthorizedUpstream(err) {
		return resp, err
	}

	logging.Ctx(ctx).Warn().
		Msg("upstream rejected access token, refreshing and retrying once")

	token, err = c.tokens.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return c.attempt(ctx, operation, token, build)
}

func (c *Client) attempt(ctx context.Context, operation, token string, build RequestFunc) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(callCtx)
	if err != nil {
		return nil, err
	}
	c.auth.Apply(req, token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		c.record(operation, 0, time.Since(start))
		return nil, classify(ctx, callCtx, operation, c.timeout, err)
	}

	resp, err := readResponse(httpResp)
	c.record(operation, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, classify(ctx, callCtx, operation, c.timeout, err)
	}

	logging.Ctx(ctx).Debug().
		Str("endpoint", req.URL.Path).
		Int("upstream_status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("upstream call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, errors.NewUpstreamError(req.URL.Path, resp.StatusCode, truncate(resp.Body))
	}
	return resp, nil
}

func (c *Client) record(operation string, status int, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.Upstream(operation, status, elapsed)
	}
}
