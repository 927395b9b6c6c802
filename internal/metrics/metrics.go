// Package metrics exposes the Prometheus collectors of the calculator.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quoteLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcalc_quote_lookups_total",
			Help: "Quote lookups by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	calculationsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcalc_calculations_saved_total",
			Help: "Calculations saved to history",
		},
		[]string{"direction"},
	)

	accessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcalc_access_decisions_total",
			Help: "Device access checks by result reason",
		},
		[]string{"reason"},
	)

	stocksRefreshed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcalc_stocks_refreshed_total",
			Help: "Stock table rows refreshed by result",
		},
		[]string{"result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcalc_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskcalc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"route"},
	)
)

// Quote outcomes.
const (
	OutcomeHit      = "cache_hit"
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

func RecordQuote(provider, outcome string) {
	quoteLookups.WithLabelValues(provider, outcome).Inc()
}

func RecordCalculationSaved(direction string) {
	calculationsSaved.WithLabelValues(direction).Inc()
}

func RecordAccessDecision(reason string) {
	accessDecisions.WithLabelValues(reason).Inc()
}

func RecordStockRefresh(updated, failed int) {
	stocksRefreshed.WithLabelValues("updated").Add(float64(updated))
	stocksRefreshed.WithLabelValues("failed").Add(float64(failed))
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
