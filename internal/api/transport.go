package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/initBasti/plenty-cli/internal/debug"
	"github.com/initBasti/plenty-cli/internal/metrics"
)

// DefaultTimeout is the per-request timeout of the default HTTP client.
const DefaultTimeout = 30 * time.Second

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport issues a single HTTP call. Implementations own timeouts and
// retries; authentication is handled by the Session.
type Transport interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error)
}

// HTTPTransport is the net/http Transport used against the REST API.
//
// It waits on the optional Limiter before each attempt, pauses while the
// remote call quota is exhausted, retries 429 responses with exponential
// backoff and retries 5xx responses of GET requests. A circuit breaker
// tracks server failures for the lifetime of the transport; use
// ResetCircuitBreaker when reusing it across logical sessions.
type HTTPTransport struct {
	HTTP        *http.Client
	UserAgent   string
	RetryConfig RetryConfig
	Limiter     *rate.Limiter
	Metrics     *metrics.Metrics

	breaker       *breaker
	rateLimitMu   sync.Mutex
	lastRateLimit *RateLimitInfo
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport with TLS 1.2+ and retry settings
// taken from the environment.
func NewHTTPTransport() *HTTPTransport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	retryCfg := RetryConfigFromEnv()
	return &HTTPTransport{
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		RetryConfig: retryCfg,
		breaker:     newBreaker(retryCfg.CircuitBreakerThreshold, retryCfg.CircuitBreakerResetTime),
	}
}

// SetRetryConfig updates the retry configuration and aligns circuit breaker settings.
func (t *HTTPTransport) SetRetryConfig(cfg RetryConfig) {
	t.RetryConfig = cfg
	if t.breaker != nil {
		t.breaker.configure(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerResetTime)
	}
}

// ResetCircuitBreaker clears failure counts and closes the circuit.
func (t *HTTPTransport) ResetCircuitBreaker() {
	if t.breaker != nil {
		t.breaker.reset()
	}
}

// Send performs the request. Any status code is returned as a Response;
// only network failures, exhausted 429 retries, an open circuit and context
// cancellation are errors.
func (t *HTTPTransport) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	if t.breaker != nil && !t.breaker.allow() {
		return nil, &CircuitBreakerError{}
	}

	isIdempotent := method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions

	var retries429, retries5xx int
	attempt := 0

	for {
		attempt++

		if d := t.quotaPause(); d > 0 {
			debug.Logger(ctx).Info("call quota exhausted, waiting", "delay", d)
			t.Metrics.Retry("quota_wait")
			if err := sleepWithContext(ctx, d); err != nil {
				return nil, err
			}
		}
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		start := time.Now()
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range header {
			req.Header[key] = append([]string(nil), values...)
		}
		if t.UserAgent != "" {
			req.Header.Set("User-Agent", t.UserAgent)
		}
		if body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := t.HTTP.Do(req)
		if err != nil {
			if debug.IsEnabled(ctx) {
				debug.Logger(ctx).Debug("request failed", "method", method, "url", url, "attempt", attempt, "error", err)
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		t.recordRateLimit(resp.Header)
		t.Metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))
		if debug.IsEnabled(ctx) {
			debug.Logger(ctx).Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		// Throttled calls are rejected before processing, so any method may be repeated.
		if resp.StatusCode == http.StatusTooManyRequests {
			if retries429 >= t.RetryConfig.MaxRateLimitRetries {
				return nil, &RateLimitError{RetryAfter: rateLimitDelay(resp.Header, t.RetryConfig.RateLimitBaseDelay, 0)}
			}
			delay := rateLimitDelay(resp.Header, t.RetryConfig.RateLimitBaseDelay, retries429)
			debug.Logger(ctx).Warn("request throttled, retrying", "delay", delay, "attempt", retries429+1)
			t.Metrics.Retry("rate_limit")
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
			retries429++
			continue
		}

		if resp.StatusCode >= 500 {
			if t.breaker != nil && t.breaker.failed() {
				debug.Logger(ctx).Warn("circuit breaker opened", "status", resp.StatusCode)
			}
			if isIdempotent && retries5xx < t.RetryConfig.Max5xxRetries {
				debug.Logger(ctx).Info("server error, retrying", "status", resp.StatusCode)
				t.Metrics.Retry("server_error")
				if err := sleepWithContext(ctx, t.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, err
				}
				retries5xx++
				continue
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 && t.breaker != nil {
			t.breaker.succeeded()
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
		}, nil
	}
}

// remoteMessage extracts a readable message from an error body.
func remoteMessage(body []byte) string {
	if len(body) == 0 {
		return "empty response"
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:197] + "..."
	}
	return msg
}
