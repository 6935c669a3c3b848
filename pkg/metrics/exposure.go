package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the exposure GET handler
	ExposureRequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "exposure_request_latency_seconds",
		Help:    "Latency of the exposure mix handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of exposure mixes served
	ExposureRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exposure_requests_total",
		Help: "Total number of exposure requests",
	})

	// Total number of ingested engagement events, by event type
	EngagementEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_events_total",
			Help: "Count of ingested engagement events by event_type.",
		},
		[]string{"event_type"},
	)
)

func Init() {
	prometheus.MustRegister(
		ExposureRequestLatency,
		ExposureRequestsTotal,
		EngagementEventsTotal,
	)
}
