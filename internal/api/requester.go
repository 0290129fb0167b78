package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes one REST call relative to the base URL. It is built by
// the query helpers and not modified afterwards.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Get returns a GET request for path with the given query.
func Get(path string, query url.Values) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Post returns a POST request for path with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put returns a PUT request for path with a JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// withPage returns a copy of the request asking for the given page.
func (r Request) withPage(page int) Request {
	q := url.Values{}
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", fmt.Sprint(page))
	r.Query = q
	return r
}

// URL joins the request onto baseURL.
func (r Request) URL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// Executor runs an authenticated request. Session is the production
// implementation; endpoint code depends only on this interface.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Credentials is a username/password pair for the login exchange.
type Credentials struct {
	Username string
	Password string
}

// CredentialProvider supplies login credentials.
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// CredentialInvalidator is implemented by providers that can discard stored
// credentials after the remote system rejected them.
type CredentialInvalidator interface {
	InvalidateCredentials(ctx context.Context) error
}

// StaticCredentials is a CredentialProvider returning fixed credentials.
type StaticCredentials Credentials

// Credentials implements CredentialProvider.
func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	if s.Username == "" || s.Password == "" {
		return Credentials{}, &AuthenticationError{Reason: "username and password required"}
	}
	return Credentials(s), nil
}

// Token is a bearer credential returned by the login exchange.
type Token struct {
	Type      string    `json:"token_type"`
	Value     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Header returns the Authorization header value.
func (t Token) Header() string {
	typ := t.Type
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + t.Value
}

// validAt reports whether the token can still be used at now, keeping a
// safety margin before expiry.
func (t Token) validAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-refreshBuffer))
}

// TokenStore persists the bearer token between processes.
type TokenStore interface {
	LoadToken(ctx context.Context) (*Token, error)
	StoreToken(ctx context.Context, token Token) error
}
