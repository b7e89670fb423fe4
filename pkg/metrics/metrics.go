// Package metrics exposes Prometheus instrumentation for the handshake
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "halyard"

// Handshake counts handshake attempts and measures their duration. A nil
// *Handshake is valid and records nothing.
type Handshake struct {
	started  prometheus.Counter
	finished *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewHandshake builds and registers handshake metrics on reg.
func NewHandshake(reg prometheus.Registerer) *Handshake {
	m := &Handshake{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_started_total",
			Help:      "Number of handshakes started.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_finished_total",
			Help:      "Number of handshakes finished, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Time from handshake start to terminal completion.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	reg.MustRegister(m.started, m.finished, m.duration)
	return m
}

// Started records the start of a handshake.
func (m *Handshake) Started() {
	if m == nil {
		return
	}
	m.started.Inc()
}

// Finished records the terminal completion of a handshake.
func (m *Handshake) Finished(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.finished.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())
}
