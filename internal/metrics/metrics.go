package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_requests_total",
		Help: "Total number of generate requests handled",
	})

	RequestsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_requests_failed_total",
		Help: "Total number of generate requests answered with an error response",
	})

	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_sched_tasks_submitted_total",
		Help: "Total number of tasks submitted to the scheduler",
	})

	TasksCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_sched_tasks_cancelled_total",
		Help: "Total number of tasks that ended cancelled",
	})

	FetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_fetches_total",
		Help: "Total number of fetch attempts",
	})

	FetchesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genserve_fetches_failed_total",
		Help: "Total number of failed fetches by failure kind",
	}, []string{"kind"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genserve_fetch_duration_seconds",
		Help:    "Fetch duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	OffloadSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_offload_submissions_total",
		Help: "Total number of work items submitted to the offload pool",
	})

	OffloadSaturated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_offload_saturated_total",
		Help: "Total number of submissions rejected by backpressure",
	})

	OffloadTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genserve_offload_timeouts_total",
		Help: "Total number of offload results abandoned by compute timeout",
	})

	ComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genserve_compute_duration_seconds",
		Help:    "Offloaded computation duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
