package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsCurrentlyRunning tracks the number of exports being produced
	JobsCurrentlyRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "export_jobs_currently_running",
		Help: "The number of export jobs currently being processed",
	})

	// QueueDepth tracks reference ids waiting for a worker
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "export_queue_depth",
		Help: "The number of export jobs waiting in the worker queue",
	})

	// QueueRejectionsTotal counts enqueue attempts refused because the queue was full
	QueueRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_queue_rejections_total",
		Help: "Total number of export jobs not queued because the queue was full",
	})

	// JobsFinishedTotal counts terminal outcomes by status
	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_finished_total",
			Help: "Total number of export jobs reaching a terminal status",
		},
		[]string{"status"},
	)

	// JobDuration tracks time spent between PROCESSING and a terminal status
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_job_duration_seconds",
			Help:    "Duration of export job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)
