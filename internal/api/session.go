package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/initBasti/plenty-cli/internal/metrics"
)

const (
	loginPath            = "/rest/login"
	refreshBuffer        = 60 * time.Second
	defaultTokenLifetime = 24 * time.Hour
)

// Session owns the bearer token. It logs in on first use, refreshes the
// token shortly before it expires and re-authenticates once when a request
// is rejected with 401. Safe for concurrent use.
type Session struct {
	baseURL   string
	transport Transport
	creds     CredentialProvider
	store     TokenStore
	metrics   *metrics.Metrics

	mu           sync.Mutex
	token        Token
	storeChecked bool
	nowFunc      func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTransport overrides the default HTTP transport.
func WithTransport(t Transport) SessionOption {
	return func(s *Session) {
		s.transport = t
	}
}

// WithTokenStore persists tokens between processes.
func WithTokenStore(store TokenStore) SessionOption {
	return func(s *Session) {
		s.store = store
	}
}

// WithSessionMetrics records login exchanges and auth failures.
func WithSessionMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) SessionOption {
	return func(s *Session) {
		s.nowFunc = f
	}
}

// NewSession creates a session against baseURL, e.g. https://shop.plentymarkets-cloud01.com.
func NewSession(baseURL string, creds CredentialProvider, opts ...SessionOption) *Session {
	s := &Session{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		s.transport = NewHTTPTransport()
	}
	return s
}

// BaseURL returns the system URL the session talks to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

type loginResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// EnsureValidToken returns the Authorization header value, logging in when
// no token is cached or the cached one is about to expire.
func (s *Session) EnsureValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.validTokenLocked(ctx)
}

// Execute sends req with the current token. A 401 response triggers exactly
// one re-authentication and one retry; a second 401 is an AuthenticationError.
// Transport errors are returned unchanged.
func (s *Session) Execute(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	authorization, err := s.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, req, authorization, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	slog.Debug("token rejected, re-authenticating", "method", req.Method, "path", req.Path)
	authorization, err = s.refreshAfterRejection(ctx, authorization)
	if err != nil {
		return nil, err
	}

	resp, err = s.send(ctx, req, authorization, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.metrics.AuthFailure()
		return nil, &AuthenticationError{
			Reason:     "request rejected after re-authentication: " + remoteMessage(resp.Body),
			StatusCode: resp.StatusCode,
		}
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, req Request, authorization string, body []byte) (*Response, error) {
	header := http.Header{}
	header.Set("Authorization", authorization)
	return s.transport.Send(ctx, req.Method, req.URL(s.baseURL), header, body)
}

func (s *Session) validTokenLocked(ctx context.Context) (string, error) {
	now := s.nowFunc()
	if s.token.validAt(now) {
		return s.token.Header(), nil
	}

	if s.store != nil && !s.storeChecked {
		s.storeChecked = true
		cached, err := s.store.LoadToken(ctx)
		switch {
		case err != nil:
			slog.Warn("failed to load cached token", "error", err)
		case cached != nil && cached.validAt(now):
			slog.Debug("using cached token", "expires_at", cached.ExpiresAt)
			s.token = *cached
			return s.token.Header(), nil
		}
	}

	if err := s.loginLocked(ctx); err != nil {
		return "", err
	}
	return s.token.Header(), nil
}

// refreshAfterRejection logs in again unless a concurrent caller already
// replaced the rejected token.
func (s *Session) refreshAfterRejection(ctx context.Context, rejected string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.validAt(s.nowFunc()) && s.token.Header() != rejected {
		return s.token.Header(), nil
	}
	s.token = Token{}
	if err := s.loginLocked(ctx); err != nil {
		return "", err
	}
	return s.token.Header(), nil
}

func (s *Session) loginLocked(ctx context.Context) error {
	if s.creds == nil {
		return &AuthenticationError{Reason: "no credential provider configured"}
	}
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	resp, err := s.transport.Send(ctx, http.MethodPost, s.baseURL+loginPath, nil, body)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		s.metrics.AuthFailure()
		return &AuthenticationError{
			Reason:     "account is locked, unlock the login in the user settings of the back office",
			StatusCode: resp.StatusCode,
		}
	}

	if gjson.GetBytes(resp.Body, "error").String() == "invalid_credentials" {
		s.metrics.AuthFailure()
		if inv, ok := s.creds.(CredentialInvalidator); ok {
			if err := inv.InvalidateCredentials(ctx); err != nil {
				slog.Warn("failed to discard rejected credentials", "error", err)
			}
		}
		return &AuthenticationError{Reason: "invalid credentials", StatusCode: resp.StatusCode}
	}

	var lr loginResponse
	if !resp.OK() || json.Unmarshal(resp.Body, &lr) != nil || lr.AccessToken == "" {
		s.metrics.AuthFailure()
		return &AuthenticationError{
			Reason:     fmt.Sprintf("login failed (status %d): %s", resp.StatusCode, remoteMessage(resp.Body)),
			StatusCode: resp.StatusCode,
		}
	}

	lifetime := time.Duration(lr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	s.token = Token{
		Type:      lr.TokenType,
		Value:     lr.AccessToken,
		ExpiresAt: s.nowFunc().Add(lifetime),
	}
	s.metrics.TokenRefresh()
	slog.Debug("obtained access token", "expires_at", s.token.ExpiresAt)

	if s.store != nil {
		if err := s.store.StoreToken(ctx, s.token); err != nil {
			slog.Warn("failed to cache token", "error", err)
		}
	}
	return nil
}
