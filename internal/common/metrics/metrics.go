// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_resolutions_total",
			Help: "Total number of context resolutions by classified intent",
		},
		[]string{"intent"},
	)

	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "resolver_resolution_duration_seconds",
			Help: "Duration of context resolution in seconds",
		},
		[]string{"intent"},
	)

	SearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_search_failures_total",
			Help: "Per-term search failures swallowed at the search boundary",
		},
		[]string{"collection"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_hits_total",
			Help: "Result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_misses_total",
			Help: "Result cache misses",
		},
	)

	DisambiguationBranches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_disambiguation_branches_total",
			Help: "Disambiguation branches fired instead of autonomous action",
		},
		[]string{"branch"},
	)
)
