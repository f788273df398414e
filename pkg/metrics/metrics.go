package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Delay sweep outcomes per run.
	SweepProjectsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delay_sweep_projects_checked_total",
			Help: "Total number of projects checked by the delay sweep",
		},
	)

	SweepProjectsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delay_sweep_projects_updated_total",
			Help: "Total number of projects whose status changed during a sweep",
		},
	)

	SweepProjectErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delay_sweep_project_errors_total",
			Help: "Total number of per-project reconcile failures during sweeps",
		},
	)

	NewlyDelayedProjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projects_newly_delayed_total",
			Help: "Total number of projects newly flagged as delayed",
		},
		[]string{"severity"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "project_reconcile_duration_seconds",
			Help:    "Duration of a single project reconcile",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// Review workflow decisions.
	ReviewDecisionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_review_decisions_total",
			Help: "Total number of submission review decisions",
		},
		[]string{"stage", "decision"},
	)

	SubmissionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_submissions_total",
			Help: "Total number of milestone submissions received",
		},
		[]string{"status"}, // status: accepted, rejected_validation
	)

	// Transport-level latencies.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)
)

func RecordSweepOutcome(checked, updated, errored int) {
	SweepProjectsChecked.Add(float64(checked))
	SweepProjectsUpdated.Add(float64(updated))
	SweepProjectErrors.Add(float64(errored))
}

func RecordNewlyDelayed(severity string) {
	NewlyDelayedProjects.WithLabelValues(severity).Inc()
}

func RecordReconcileDuration(duration time.Duration) {
	ReconcileDuration.Observe(duration.Seconds())
}

func RecordReviewDecision(stage, decision string) {
	ReviewDecisionCount.WithLabelValues(stage, decision).Inc()
}

func RecordSubmission(status string) {
	SubmissionCount.WithLabelValues(status).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
