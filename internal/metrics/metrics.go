package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlbridge_events_total",
			Help: "Archive events by outcome",
		},
		[]string{"outcome"}, // received|published|excluded|dropped|publish_failed
	)

	PublishSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mlbridge_publish_seconds",
			Help:    "Bus publish latency including retries",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsTotal,
		PublishSeconds,
	)
}
