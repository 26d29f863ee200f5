// Package metrics holds the Prometheus collectors the engine updates.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Interaction outcomes.
const (
	OutcomeCreated = "created"
	OutcomeRemoved = "removed"
	OutcomeNoop    = "noop"
)

var (
	// Interactions counts like and follow mutations by whether they changed state.
	// Labels: kind (like, follow, comment, post), outcome (created, removed, noop)
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nano",
		Name:      "interactions_total",
		Help:      "Interaction mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	// NotificationsFannedOut counts notifications created as a side effect.
	// Labels: kind
	NotificationsFannedOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nano",
		Name:      "notifications_fanned_out_total",
		Help:      "Notifications created by interaction fan-out",
	}, []string{"kind"})

	// FeedAssembly measures feed page assembly latency.
	// Labels: scope, order
	FeedAssembly = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nano",
		Name:      "feed_assembly_seconds",
		Help:      "Feed page assembly latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"scope", "order"})
)

// RecordInteraction increments the interaction counter.
func RecordInteraction(kind, outcome string) {
	Interactions.WithLabelValues(kind, outcome).Inc()
}

// RecordFanOut increments the fan-out counter for kind.
func RecordFanOut(kind string) {
	NotificationsFannedOut.WithLabelValues(kind).Inc()
}

// ObserveFeed records how long assembling one feed page took.
func ObserveFeed(scope, order string, started time.Time) {
	FeedAssembly.WithLabelValues(scope, order).Observe(time.Since(started).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
