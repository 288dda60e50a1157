// Package metrics exposes Prometheus collectors for task persistence.
//
// All methods are safe on a nil *Metrics, so components can be built
// without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "todo"

// Hydrate outcomes.
const (
	HydrateEmpty    = "empty"
	HydrateLoaded   = "loaded"
	HydrateFallback = "fallback"
)

// Metrics holds the persistence collectors.
type Metrics struct {
	writes       *prometheus.CounterVec
	coalesced    prometheus.Counter
	writeSeconds prometheus.Histogram
	hydrations   *prometheus.CounterVec
	tasks        prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Writes of the task collection to the key-value store, by result.",
		}, []string{"result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_coalesced_total",
			Help:      "Snapshots replaced by a newer one before being written.",
		}),
		writeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_write_seconds",
			Help:      "Latency of key-value writes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		hydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydrate_total",
			Help:      "Startup loads of the task collection, by outcome.",
		}, []string{"outcome"}),
		tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks",
			Help:      "Number of tasks in the most recently persisted snapshot.",
		}),
	}

	for _, c := range []prometheus.Collector{m.writes, m.coalesced, m.writeSeconds, m.hydrations, m.tasks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteOK records a successful write of n tasks.
func (m *Metrics) WriteOK(n int, d time.Duration) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues("ok").Inc()
	m.writeSeconds.Observe(d.Seconds())
	m.tasks.Set(float64(n))
}

// WriteFailed records a failed write.
func (m *Metrics) WriteFailed(d time.Duration) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues("failed").Inc()
	m.writeSeconds.Observe(d.Seconds())
}

// Coalesced records a snapshot dropped in favor of a newer one.
func (m *Metrics) Coalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

// Hydrated records a startup load outcome.
func (m *Metrics) Hydrated(outcome string, n int) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(outcome).Inc()
	m.tasks.Set(float64(n))
}
