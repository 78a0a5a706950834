package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	heapUsedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lv_memory_heap_used_bytes",
		Help: "Heap in use at the last memory sample",
	})

	rssBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lv_memory_rss_bytes",
		Help: "Resident set size at the last memory sample",
	})

	reclaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lv_memory_reclaims_total",
		Help: "Forced memory reclamations by trigger",
	}, []string{"trigger"})
)
