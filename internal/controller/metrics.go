package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Metric names are prefixed agentrun_*, grounded on the teacher's
// metrics.go (same NewCounterVec/NewHistogramVec + metrics.Registry
// idiom). Cost/token metrics are dropped: they depended on the teacher's
// pod-log-scraping capture package, which spec.md §4.3 rules out as an
// information source (see DESIGN.md).
var (
	// taskCreatedTotal counts task resources for which a Job was created.
	taskCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrun_task_created_total",
			Help: "Total number of tasks for which a Job was created",
		},
		[]string{"kind"},
	)

	// taskCompletedTotal counts task resources that reached a terminal phase.
	taskCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrun_task_completed_total",
			Help: "Total number of tasks that reached a terminal phase",
		},
		[]string{"kind", "phase"},
	)

	// taskDurationSeconds records Job duration from start to completion.
	taskDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentrun_task_duration_seconds",
			Help:    "Duration of task Job execution from start to completion",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
		[]string{"kind", "phase"},
	)

	// reconcileErrorsTotal counts reconciliation errors.
	reconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentrun_reconcile_errors_total",
			Help: "Total number of reconciliation errors",
		},
		[]string{"kind"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		taskCreatedTotal,
		taskCompletedTotal,
		taskDurationSeconds,
		reconcileErrorsTotal,
	)
}
