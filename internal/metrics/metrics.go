// Package metrics holds the Prometheus collectors shared by the HTTP layer
// and the query layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration measures HTTP handling time.
	// Labels: route (chi route pattern), method, code
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cola_explorer",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "code"})

	// QueryDuration measures database round trips made by the query layer.
	// Labels: query (matches, page, images, items, violations, options_*, stats)
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cola_explorer",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Query latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"query"})

	// OptionsCache counts filter-option cache lookups.
	// Labels: result (hit, miss)
	OptionsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cola_explorer",
		Subsystem: "options",
		Name:      "cache_lookups_total",
		Help:      "Filter option cache lookups by result",
	}, []string{"result"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cola_explorer",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter",
	})
)

// ObserveQuery records how long the named query took since start.
func ObserveQuery(name string, start time.Time) {
	QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
