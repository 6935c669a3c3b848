package exposure

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ExposureCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exposure_cache_hits_total",
			Help: "Count of exposure cache hits by tier (redis, local).",
		},
		[]string{"tier"},
	)

	ExposureCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exposure_cache_misses_total",
			Help: "Count of exposure cache misses that triggered a rebuild.",
		},
	)

	ExposureBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exposure_builds_total",
			Help: "Count of exposure mix builds by display context.",
		},
		[]string{"context"},
	)

	ExposureBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exposure_build_duration_seconds",
			Help:    "Duration of exposure mix builds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		ExposureCacheHitsTotal,
		ExposureCacheMissesTotal,
		ExposureBuildsTotal,
		ExposureBuildDuration,
	)
}
