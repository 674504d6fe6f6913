package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation pipeline metrics, registered on the default registry and
// exposed through /metrics.
var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morphic_generations_total",
		Help: "Completed generation runs by outcome.",
	}, []string{"outcome"}) // completed, failed

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morphic_cache_lookups_total",
		Help: "Cache lookups by cache and result.",
	}, []string{"cache", "result"}) // blueprint/delta, hit/miss

	RepairAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "morphic_repair_attempts",
		Help:    "Repair attempts consumed per fresh generation.",
		Buckets: prometheus.LinearBuckets(0, 1, 5),
	})

	ModelCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "morphic_model_call_duration_seconds",
		Help:    "Latency of chat-completions calls.",
		Buckets: prometheus.DefBuckets,
	})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "morphic_generation_duration_seconds",
		Help:    "End-to-end duration of generation runs.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)
