package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, status int, body string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &Checker{URL: srv.URL, Client: srv.Client()}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		current string
		tag     string
		want    bool
	}{
		{"newer release", "1.2.0", "v1.3.0", true},
		{"same release", "v1.3.0", "v1.3.0", false},
		{"older release", "2.0.0", "v1.9.9", false},
		{"dev build", "dev", "v1.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := releaseServer(t, http.StatusOK, `{"tag_name":"`+tt.tag+`","html_url":"https://example.com/r"}`)
			res, err := c.Check(context.Background(), tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.UpdateAvailable)
			assert.Equal(t, tt.tag[1:], res.Latest)
			assert.Equal(t, "https://example.com/r", res.URL)
		})
	}
}

func TestCheck_Errors(t *testing.T) {
	_, err := releaseServer(t, http.StatusNotFound, `{}`).Check(context.Background(), "1.0.0")
	assert.ErrorContains(t, err, "404")

	_, err = releaseServer(t, http.StatusOK, `{"name":"untagged"}`).Check(context.Background(), "1.0.0")
	assert.ErrorContains(t, err, "tag_name")
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v1.0.0", canonical("1.0.0"))
	assert.Equal(t, "v1.0.0", canonical(" v1.0.0 "))
}
