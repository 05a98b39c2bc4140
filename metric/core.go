package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all kernel-level metrics (not component-specific)
type Metrics struct {
	// Registry metrics
	ComponentsRegistered prometheus.Gauge
	ComponentsActive     prometheus.Gauge
	ComponentStatus      *prometheus.GaugeVec
	BringUpDuration      prometheus.Histogram
	TickDuration         prometheus.Histogram

	// Event bus metrics
	EventsPublished  prometheus.Counter
	EventsDispatched prometheus.Counter
	EventsDropped    prometheus.Counter
	QueueDepth       prometheus.Gauge
	Subscriptions    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all kernel metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "devicekit",
				Subsystem: "registry",
				Name:      "components_registered",
				Help:      "Number of components currently registered",
			},
		),

		ComponentsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "devicekit",
				Subsystem: "registry",
				Name:      "components_active",
				Help:      "Number of components currently active",
			},
		),

		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "devicekit",
				Subsystem: "registry",
				Name:      "component_status",
				Help:      "Last observed component status code (0=success)",
			},
			[]string{"component"},
		),

		BringUpDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "devicekit",
				Subsystem: "registry",
				Name:      "bringup_duration_seconds",
				Help:      "Duration of full component bring-up in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "devicekit",
				Subsystem: "registry",
				Name:      "tick_duration_seconds",
				Help:      "Duration of one host tick (loops plus bus drain) in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),

		EventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devicekit",
				Subsystem: "bus",
				Name:      "events_published_total",
				Help:      "Total number of events admitted to the delivery queue",
			},
		),

		EventsDispatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devicekit",
				Subsystem: "bus",
				Name:      "events_dispatched_total",
				Help:      "Total number of events dequeued and dispatched to handlers",
			},
		),

		EventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devicekit",
				Subsystem: "bus",
				Name:      "events_dropped_total",
				Help:      "Total number of events evicted by the drop-oldest policy",
			},
		),

		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "devicekit",
				Subsystem: "bus",
				Name:      "queue_depth",
				Help:      "Number of events currently queued for delivery",
			},
		),

		Subscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "devicekit",
				Subsystem: "bus",
				Name:      "subscriptions",
				Help:      "Number of live subscriptions across all indices",
			},
		),
	}
}

// RecordComponentStatus updates the per-component status gauge
func (m *Metrics) RecordComponentStatus(component string, status int) {
	m.ComponentStatus.WithLabelValues(component).Set(float64(status))
}

// RecordBringUp records the duration of a full bring-up pass
func (m *Metrics) RecordBringUp(duration time.Duration) {
	m.BringUpDuration.Observe(duration.Seconds())
}

// RecordTick records the duration of one host tick
func (m *Metrics) RecordTick(duration time.Duration) {
	m.TickDuration.Observe(duration.Seconds())
}
