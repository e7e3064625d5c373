// Package metrics exposes the Prometheus collectors of the discount service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Redemption outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeCapExceeded = "cap_exceeded"
	OutcomeAlreadyUsed = "already_used"
	OutcomeTransient   = "transient_error"
)

var (
	redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discount",
		Name:      "redemptions_total",
		Help:      "Redemption attempts by outcome.",
	}, []string{"outcome"})

	counterUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "discount",
		Name:      "counter_update_failures_total",
		Help:      "Redemptions recorded whose current_total_uses increment failed.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "discount",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveRedemption counts one redemption attempt.
func ObserveRedemption(outcome string) {
	redemptions.WithLabelValues(outcome).Inc()
}

// ObserveCounterUpdateFailure counts a swallowed counter increment failure.
func ObserveCounterUpdateFailure() {
	counterUpdateFailures.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, route, status string, seconds float64) {
	requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
