package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobsByStatus is the number of stored export jobs per status, refreshed on every sweep
var JobsByStatus = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "export_jobs_by_status",
		Help: "The number of stored export jobs per status",
	},
	[]string{"status"},
)
