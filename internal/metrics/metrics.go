package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weather_city_jobs"

// Fetch job outcomes.
const (
	OutcomeStored          = "stored"
	OutcomeCityMissing     = "city_missing"
	OutcomeNoData          = "no_data"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeUnexpectedError = "unexpected_error"
)

var (
	registry *prometheus.Registry

	// HTTP request rate by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per route.
	HTTPRequestDuration *prometheus.HistogramVec

	// Background fetch runs by outcome. Watch for: upstream_error growth.
	FetchJobsTotal *prometheus.CounterVec

	// Outbound calls to geocoding/weather APIs by api and outcome.
	UpstreamCallsTotal *prometheus.CounterVec

	// Number of city jobs currently registered with the scheduler.
	ScheduledJobs prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	FetchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_jobs_total",
			Help:      "Scheduled weather fetch runs by outcome",
		},
		[]string{"outcome"},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Outbound geocoding and weather API calls by api and outcome",
		},
		[]string{"api", "outcome"},
	)
	ScheduledJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_jobs",
			Help:      "City jobs registered with the scheduler",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FetchJobsTotal,
		UpstreamCallsTotal,
		ScheduledJobs,
	)
}

// RecordFetch counts one background fetch run.
func RecordFetch(outcome string) {
	FetchJobsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamCall counts one outbound API call. outcome is "success" or "error".
func RecordUpstreamCall(api, outcome string) {
	UpstreamCallsTotal.WithLabelValues(api, outcome).Inc()
}

// Handler serves application and runtime metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
