// Package metrics exposes prometheus collectors for the conversation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements session.Recorder on top of prometheus counters.
type Metrics struct {
	sessionsStarted *prometheus.CounterVec
	sessionsResumed *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
	terminations    *prometheus.CounterVec
	renderFailures  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_sessions_started_total",
			Help: "Conversations started, by template.",
		}, []string{"template"}),
		sessionsResumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_sessions_resumed_total",
			Help: "Start requests that resumed an existing active session.",
		}, []string{"template"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_transitions_total",
			Help: "Events processed, by template and outcome.",
		}, []string{"template", "result"}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_guard_rejections_total",
			Help: "Transitions aborted by an entity guard, by template.",
		}, []string{"template"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_sessions_terminated_total",
			Help: "Sessions terminated, by template and final status.",
		}, []string{"template", "status"}),
		renderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_render_failures_total",
			Help: "Render port failures, by component.",
		}, []string{"component"}),
	}

	reg.MustRegister(
		m.sessionsStarted,
		m.sessionsResumed,
		m.transitions,
		m.guardRejections,
		m.terminations,
		m.renderFailures,
	)
	return m
}

func (m *Metrics) SessionStarted(templateID string) {
	m.sessionsStarted.WithLabelValues(templateID).Inc()
}

func (m *Metrics) SessionResumed(templateID string) {
	m.sessionsResumed.WithLabelValues(templateID).Inc()
}

func (m *Metrics) TransitionApplied(templateID string) {
	m.transitions.WithLabelValues(templateID, "applied").Inc()
}

func (m *Metrics) TransitionNoOp(templateID string) {
	m.transitions.WithLabelValues(templateID, "no_transition").Inc()
}

func (m *Metrics) GuardRejected(templateID string) {
	m.guardRejections.WithLabelValues(templateID).Inc()
}

func (m *Metrics) SessionTerminated(templateID, status string) {
	m.terminations.WithLabelValues(templateID, status).Inc()
}

func (m *Metrics) RenderFailed(component string) {
	m.renderFailures.WithLabelValues(component).Inc()
}
