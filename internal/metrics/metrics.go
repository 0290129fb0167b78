// Package metrics defines Prometheus metrics for the PlentyMarkets client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "plenty"

// Metrics groups the client collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	PagesTotal      *prometheus.CounterVec
	RecordsTotal    *prometheus.CounterVec
	TokenRefreshes  prometheus.Counter
	AuthFailures    prometheus.Counter
}

// New registers the client collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of REST requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of REST requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of transport retries by reason.",
		}, []string{"reason"}),
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Total number of result pages fetched by route.",
		}, []string{"route"}),
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of records aggregated by route.",
		}, []string{"route"}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of login exchanges.",
		}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of failed authentications.",
		}),
	}
}

// ObserveRequest records one completed HTTP round trip.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Retry records a transport retry.
func (m *Metrics) Retry(reason string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(reason).Inc()
}

// Page records one fetched page and its record count.
func (m *Metrics) Page(route string, records int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(route).Inc()
	m.RecordsTotal.WithLabelValues(route).Add(float64(records))
}

// TokenRefresh records a login exchange.
func (m *Metrics) TokenRefresh() {
	if m == nil {
		return
	}
	m.TokenRefreshes.Inc()
}

// AuthFailure records a failed authentication.
func (m *Metrics) AuthFailure() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}
