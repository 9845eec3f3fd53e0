package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the horse registry module.
type Metrics struct {
	// Submissions entering the approval pipeline
	Submitted prometheus.Counter

	// Registration decisions by outcome ("approved", "rejected")
	Decisions *prometheus.CounterVec

	// Staged-change resolutions by outcome ("committed", "discarded")
	ChangeResolutions *prometheus.CounterVec
}

// New creates a new Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studbook_horses_submitted_total",
			Help: "Total horse registrations submitted for review",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studbook_registration_decisions_total",
			Help: "Total registration decisions by outcome",
		}, []string{"outcome"}),
		ChangeResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studbook_staged_change_resolutions_total",
			Help: "Total staged-change resolutions by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementSubmitted records a horse entering the approval pipeline.
func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

// IncrementDecision records a registration decision outcome.
func (m *Metrics) IncrementDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

// IncrementChangeResolution records a staged-change resolution outcome.
func (m *Metrics) IncrementChangeResolution(outcome string) {
	if m != nil {
		m.ChangeResolutions.WithLabelValues(outcome).Inc()
	}
}
