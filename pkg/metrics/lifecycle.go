package metrics

import "github.com/prometheus/client_golang/prometheus"

// LifecycleMetrics counts membership application transitions.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	submissions prometheus.Counter
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	m := &LifecycleMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "application_transitions_total",
			Help:      "Successful membership application transitions.",
		}, []string{"transition"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "application_transition_failures_total",
			Help:      "Rejected membership application transitions by error code.",
		}, []string{"transition", "code"}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "application_submissions_total",
			Help:      "Membership applications accepted at intake.",
		}),
	}
	reg.MustRegister(m.transitions, m.failures, m.submissions)
	return m
}

func (m *LifecycleMetrics) IncSubmission() {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Inc()
}

func (m *LifecycleMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

func (m *LifecycleMetrics) IncFailure(transition, code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(transition), normalizeLabel(code)).Inc()
}
