package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initBasti/plenty-cli/internal/metrics"
)

func fastTransport() *HTTPTransport {
	tr := NewHTTPTransport()
	tr.SetRetryConfig(RetryConfig{
		MaxRateLimitRetries:     2,
		Max5xxRetries:           1,
		RateLimitBaseDelay:      time.Millisecond,
		ServerErrorRetryDelay:   time.Millisecond,
		CircuitBreakerThreshold: 3,
		CircuitBreakerResetTime: time.Minute,
	})
	return tr
}

func TestHTTPTransport_ReturnsNon2xxAsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}))
	defer server.Close()

	resp, err := fastTransport().Send(context.Background(), http.MethodGet, server.URL+"/rest/items/1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"error":{"message":"not found"}}`, string(resp.Body))
}

func TestHTTPTransport_SetsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "plenty-cli/test", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"x"}`, string(body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := fastTransport()
	tr.UserAgent = "plenty-cli/test"
	header := http.Header{}
	header.Set("Authorization", "Bearer abc")

	resp, err := tr.Send(context.Background(), http.MethodPost, server.URL, header, []byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestHTTPTransport_RetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	tr := fastTransport()
	tr.Metrics = metrics.New(reg)

	resp, err := tr.Send(context.Background(), http.MethodPost, server.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(tr.Metrics.RetriesTotal.WithLabelValues("rate_limit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(tr.Metrics.RequestsTotal.WithLabelValues("POST", "429")))
}

func TestHTTPTransport_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := fastTransport().Send(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPTransport_RetriesServerErrorsOnlyForGet(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	resp, err := fastTransport().Send(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())

	calls.Store(0)
	resp, err = fastTransport().Send(context.Background(), http.MethodPost, server.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPTransport_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := fastTransport()
	for i := 0; i < 3; i++ {
		_, err := tr.Send(context.Background(), http.MethodPost, server.URL, nil, nil)
		require.NoError(t, err)
	}

	_, err := tr.Send(context.Background(), http.MethodPost, server.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, IsCircuitBreakerError(err))

	tr.ResetCircuitBreaker()
	_, err = tr.Send(context.Background(), http.MethodPost, server.URL, nil, nil)
	assert.NoError(t, err)
}

func TestHTTPTransport_RecordsCallQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Plenty-Global-Short-Period-Limit", "40")
		w.Header().Set("X-Plenty-Global-Short-Period-Calls-Left", "39")
		w.Header().Set("X-Plenty-Global-Short-Period-Decay", "5")
		w.Header().Set("X-Plenty-Route-Limit", "10")
		w.Header().Set("X-Plenty-Route-Calls-Left", "3")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tr := fastTransport()
	assert.Nil(t, tr.LastRateLimit())

	_, err := tr.Send(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)

	info := tr.LastRateLimit()
	require.NotNil(t, info)
	require.NotNil(t, info.ShortPeriod)
	assert.Equal(t, 40, info.ShortPeriod.Limit)
	assert.Equal(t, 39, info.ShortPeriod.Remaining)
	assert.False(t, info.ShortPeriod.ResetAt.IsZero())
	require.NotNil(t, info.Route)
	assert.Equal(t, 3, info.Route.Remaining)
	assert.Nil(t, info.LongPeriod)

	meta := info.Meta()
	assert.Contains(t, meta, "short_period")
	assert.Contains(t, meta, "route")
	assert.NotContains(t, meta, "long_period")
}

func TestHTTPTransport_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	tr := fastTransport()
	tr.RetryConfig.RateLimitBaseDelay = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.Send(ctx, http.MethodGet, server.URL, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitInfo_Pause(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		info *RateLimitInfo
		want time.Duration
	}{
		{"nil", nil, 0},
		{"calls left", &RateLimitInfo{ShortPeriod: &RateLimitWindow{Remaining: 2, ResetAt: now.Add(time.Second)}}, 0},
		{"short exhausted", &RateLimitInfo{ShortPeriod: &RateLimitWindow{Remaining: 0, ResetAt: now.Add(2 * time.Second)}}, 2 * time.Second},
		{"route wins", &RateLimitInfo{
			ShortPeriod: &RateLimitWindow{Remaining: 0, ResetAt: now.Add(time.Second)},
			Route:       &RateLimitWindow{Remaining: 0, ResetAt: now.Add(3 * time.Second)},
		}, 3 * time.Second},
		{"long period ignored", &RateLimitInfo{LongPeriod: &RateLimitWindow{Remaining: 0, ResetAt: now.Add(time.Hour)}}, 0},
		{"no decay", &RateLimitInfo{Route: &RateLimitWindow{Remaining: 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.pause(now))
		})
	}
}

func TestParseRateLimitInfo_NoHeaders(t *testing.T) {
	assert.Nil(t, parseRateLimitInfo(http.Header{}, time.Now()))
	assert.Nil(t, parseRateLimitInfo(nil, time.Now()))
}

func TestRemoteMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{``, "empty response"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"message":"top"}`, "top"},
		{`{"error":"invalid_credentials"}`, "invalid_credentials"},
		{`plain text`, "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, remoteMessage([]byte(tt.body)), "body %q", tt.body)
	}
}
