// Package update compares the running version with the latest published
// release.
package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/initBasti/plenty-cli/releases/latest"
	CheckTimeout       = 5 * time.Second
)

// Result describes the outcome of a release check.
type Result struct {
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	URL             string `json:"url,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

// Checker queries a GitHub style "latest release" document.
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker returns a checker for the default release feed.
func NewChecker() *Checker {
	return &Checker{URL: DefaultReleasesURL, Client: http.DefaultClient}
}

// Check fetches the latest release and compares it with current. Development
// builds are never reported as outdated.
func (c *Checker) Check(ctx context.Context, current string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking for updates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checking for updates: release feed answered %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("checking for updates: %w", err)
	}

	tag := gjson.GetBytes(body, "tag_name").String()
	if tag == "" {
		return nil, fmt.Errorf("checking for updates: release has no tag_name")
	}
	res := &Result{
		Current: current,
		Latest:  strings.TrimPrefix(tag, "v"),
		URL:     gjson.GetBytes(body, "html_url").String(),
	}
	cur, latest := canonical(current), canonical(tag)
	if semver.IsValid(cur) && semver.IsValid(latest) {
		res.UpdateAvailable = semver.Compare(latest, cur) > 0
	}
	return res, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
