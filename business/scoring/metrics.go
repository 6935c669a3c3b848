package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScoringRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_total",
			Help: "Count of scoring runs by outcome.",
		},
		[]string{"outcome"},
	)

	ScoringProductsUpdated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoring_products_updated",
			Help: "Number of product rankings updated by the last scoring run.",
		},
	)
)

func init() {
	prometheus.MustRegister(ScoringRunsTotal, ScoringProductsUpdated)
}
