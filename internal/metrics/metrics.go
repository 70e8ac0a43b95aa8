// Package metrics exposes Prometheus collectors for the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroi_requests_total",
			Help: "Total number of API requests per route and status code",
		},
		[]string{"route", "code"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greenroi_request_duration_seconds",
			Help:    "API request duration in seconds per route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenroi_calculations_total",
			Help: "Completed calculations per category and savings basis",
		},
		[]string{"category", "basis"},
	)

	UnboundedPaybackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greenroi_unbounded_payback_total",
			Help: "Projections whose investment is never recovered",
		},
	)

	UsageSearchSaturatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greenroi_usage_search_saturated_total",
			Help: "Bill-to-usage searches that stopped at the search ceiling",
		},
	)
)

// ObserveRequest records one finished request
func ObserveRequest(route, code string, startedAt time.Time) {
	RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(startedAt).Seconds())
	RequestsTotal.WithLabelValues(route, code).Inc()
}

// ObserveCalculation records the outcome of a calculation
func ObserveCalculation(category, basis string, unbounded, saturated bool) {
	CalculationsTotal.WithLabelValues(category, basis).Inc()
	if unbounded {
		UnboundedPaybackTotal.Inc()
	}
	if saturated {
		UsageSearchSaturatedTotal.Inc()
	}
}
