package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/initBasti/plenty-cli/internal/metrics"
)

// Client is the PlentyMarkets REST client. Endpoint methods are grouped by
// resource through the service accessors in services.go.
//
// All requests run through one Executor, normally a *Session, so concurrent
// calls share a single bearer token.
type Client struct {
	exec      Executor
	session   *Session
	transport *HTTPTransport

	location *time.Location
	maxPages int
	progress func(Progress)
	metrics  *metrics.Metrics
	validate *validator.Validate
	nowFunc  func() time.Time

	sessionOpts []SessionOption
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor replaces the session. Used by tests and by callers that
// authenticate on their own.
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		c.exec = e
	}
}

// WithHTTPTransport sets the transport used by the session.
func WithHTTPTransport(t *HTTPTransport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithSessionOptions passes options through to NewSession.
func WithSessionOptions(opts ...SessionOption) Option {
	return func(c *Client) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// WithLocation sets the time zone for dates given without an offset.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithPageLimit bounds every paginated call.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithProgressCallback reports the progress of every paginated call.
func WithProgressCallback(fn func(Progress)) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// WithMetrics records request, page and session metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock overrides the time source used for booking dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New creates a client for the system at baseURL, e.g.
// https://shop.plentymarkets-cloud01.com.
func New(baseURL string, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		location: time.Local,
		maxPages: DefaultMaxPages,
		validate: newValidator(),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		if c.transport == nil {
			c.transport = NewHTTPTransport()
		}
		if c.transport.Metrics == nil {
			c.transport.Metrics = c.metrics
		}
		sessionOpts := append([]SessionOption{
			WithTransport(c.transport),
			WithSessionMetrics(c.metrics),
		}, c.sessionOpts...)
		c.session = NewSession(baseURL, creds, sessionOpts...)
		c.exec = c.session
	}
	return c
}

// Session returns the authenticated session, or nil when an Executor was injected.
func (c *Client) Session() *Session {
	return c.session
}

// LastRateLimit returns the call quota reported with the latest response.
func (c *Client) LastRateLimit() *RateLimitInfo {
	if c.transport == nil {
		return nil
	}
	return c.transport.LastRateLimit()
}

// Do executes a single request and returns the response verbatim.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	return c.exec.Execute(ctx, req)
}

// list validates p for e and aggregates all pages at path.
func (c *Client) list(ctx context.Context, e Endpoint, path string, p ListParams, extra func(q url.Values)) ([]Record, error) {
	q, err := buildQuery(e, p, c.location)
	if err != nil {
		return nil, err
	}
	if extra != nil {
		extra(q)
	}
	return c.paginate(ctx, e, Get(path, q))
}

func (c *Client) paginate(ctx context.Context, e Endpoint, req Request) ([]Record, error) {
	opts := []PageOption{
		WithMaxPages(c.maxPages),
		WithPageMetrics(c.metrics, string(e)),
	}
	if c.progress != nil {
		opts = append(opts, WithProgress(c.progress))
	}
	return Paginate(ctx, c.exec, req, opts...)
}

// getRecords performs an unpaginated GET and decodes the array or object body.
func (c *Client) getRecords(ctx context.Context, req Request) ([]Record, error) {
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &RemoteRejectedError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	p, err := ParsePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Path, err)
	}
	return p.Records, nil
}

// write sends a create or update request. Remote rejections are reported in
// the result; only transport and authentication failures are errors.
func (c *Client) write(ctx context.Context, req Request) (*WriteResult, error) {
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return rejected(resp), nil
	}
	data, err := decodeData(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return &WriteResult{Data: data, Status: resp.StatusCode}, nil
}

var _ Executor = (*Session)(nil)
