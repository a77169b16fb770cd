package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for check-in validation.
type Metrics struct {
	Decisions          *prometheus.CounterVec   // labels: outcome={accepted,rejected}, reason
	NearestDistance    *prometheus.HistogramVec // labels: site
	ValidationDuration prometheus.Histogram

	// Decision event publishing.
	EventsPublished  *prometheus.CounterVec // labels: result={success,error}
	PublisherEnabled prometheus.Gauge
}

// NewMetrics creates and registers all check-in metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Decisions,
		m.NearestDistance,
		m.ValidationDuration,
		m.EventsPublished,
		m.PublisherEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "decisions_total",
			Help:      "Check-in decisions by outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		NearestDistance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checkin",
			Name:      "nearest_distance_meters",
			Help:      "Distance from the reported coordinate to the nearest site.",
			Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 5000, 25000},
		}, []string{"site"}),
		ValidationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "checkin",
			Name:      "validation_duration_seconds",
			Help:      "Time spent producing a check-in decision.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkin",
			Name:      "decision_events_total",
			Help:      "Decision events handed to the publisher, by result.",
		}, []string{"result"}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "checkin",
			Name:      "publisher_enabled",
			Help:      "1 when decision events are published to Kafka, 0 otherwise.",
		}),
	}
}
