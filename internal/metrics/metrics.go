// Package metrics defines the prometheus collectors start-server exposes
// on /metrics: request count, per-request itinerary outcomes, and graph
// build duration.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors registered against one Registerer.
type Metrics struct {
	RequestCount         *prometheus.CounterVec
	ItinerariesFinished  prometheus.Counter
	ItinerariesAbandoned *prometheus.CounterVec
	BuildDuration        prometheus.Histogram
}

// New creates and registers the collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridi_router",
			Name:      "requests_total",
			Help:      "Total number of generate-route requests served.",
		}, []string{"trip", "status"}),
		ItinerariesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridi_router",
			Name:      "itineraries_finished_total",
			Help:      "Total number of routes returned to clients (finished itineraries left after deduplication).",
		}),
		ItinerariesAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridi_router",
			Name:      "itineraries_abandoned_total",
			Help:      "Total number of itineraries abandoned, by reason.",
		}, []string{"reason"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ridi_router",
			Name:      "graph_build_duration_seconds",
			Help:      "Time to build or load the MapDataGraph at server startup.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.RequestCount, m.ItinerariesFinished, m.ItinerariesAbandoned, m.BuildDuration)
	return m
}
