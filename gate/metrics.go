package gate

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "fwgate"

// decisionOpen labels requests answered by the open path routing table.
const decisionOpen = "open"

type gateMetrics struct {
	decisions   *prometheus.CounterVec
	validations *prometheus.CounterVec
}

// newGateMetrics creates the gate's counters and registers them with reg.
// A nil reg leaves them unregistered but usable.
func newGateMetrics(reg prometheus.Registerer) *gateMetrics {
	m := &gateMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decisions_total",
			Help:      "Requests handled by the gate, by decision.",
		}, []string{"decision"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validations_total",
			Help:      "API key validation attempts, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.validations)
	}
	return m
}

func (m *gateMetrics) decision(label string) {
	m.decisions.WithLabelValues(label).Inc()
}

func (m *gateMetrics) validation(event AuditEvent) {
	m.validations.WithLabelValues(strings.TrimPrefix(string(event), "validate_")).Inc()
}
