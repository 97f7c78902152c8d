// Package metrics exposes prometheus collectors for worker invocations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-fanout/internal/domain"
)

const namespace = "docworker"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	fragments   prometheus.Counter
	duration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Invocations by selected mode and outcome.",
		}, []string{"mode", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed invocations by error kind.",
		}, []string{"kind"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_created_total",
			Help:      "Child fragments written by split invocations.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Invocation wall time by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(m.invocations, m.failures, m.fragments, m.duration)
	return m
}

// ObserveInvocation records one finished invocation. mode is empty when
// the invocation failed before a mode was selected.
func (m *Metrics) ObserveInvocation(mode domain.Mode, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := string(mode)
	if label == "" {
		label = "none"
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
		kind, ok := domain.KindOf(err)
		if !ok {
			kind = "Internal"
		}
		m.failures.WithLabelValues(string(kind)).Inc()
	}
	m.invocations.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// AddFragments counts fragments written by a split.
func (m *Metrics) AddFragments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fragments.Add(float64(n))
}
