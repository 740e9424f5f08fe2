// Package metrics exposes Prometheus instrumentation for the approval
// workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/closet-hub/closet-hub/internal/domain/approval"
)

// Metrics implements the decision service's metrics sink.
type Metrics struct {
	decisions       *prometheus.CounterVec
	decisionLatency prometheus.Histogram
	expiries        prometheus.Counter
}

// New registers the workflow collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "closet_hub",
			Name:      "approval_decisions_total",
			Help:      "Approval decisions recorded, by outcome.",
		}, []string{"outcome"}),
		decisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "closet_hub",
			Name:      "approval_latency_seconds",
			Help:      "Time from submission to decision.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		expiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "closet_hub",
			Name:      "review_expiries_total",
			Help:      "Review suspensions closed by the deadline sweeper.",
		}),
	}
	reg.MustRegister(m.decisions, m.decisionLatency, m.expiries)
	return m
}

// ObserveDecision counts one recorded decision and its review latency.
func (m *Metrics) ObserveDecision(outcome approval.Status, latency time.Duration) {
	m.decisions.WithLabelValues(string(outcome)).Inc()
	if latency >= 0 {
		m.decisionLatency.Observe(latency.Seconds())
	}
}

// ObserveExpiry counts one review suspension closed by timeout.
func (m *Metrics) ObserveExpiry() {
	m.expiries.Inc()
}
