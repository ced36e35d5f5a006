package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Validation metrics
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validations_total",
			Help: "Total number of problem validations, labeled by outcome",
		},
		[]string{"outcome"}, // "ok", "failed"
	)

	// Solve metrics
	SolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solves_total",
			Help: "Total number of solve attempts, labeled by final solver status",
		},
		[]string{"status"}, // "optimal", "feasible", or "error" for any failed solve
	)

	SolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solve_duration_seconds",
			Help:    "Wall-clock time spent in the solver per solve attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	SolveObjectiveValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solve_objective_value",
			Help:    "Objective value of accepted solutions",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	EventsScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_scheduled_total",
			Help: "Total number of unit events placed across all successful solves",
		},
	)

	// Database metrics
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of database errors",
		},
	)

	// Rate limiting
	RateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
