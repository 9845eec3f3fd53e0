package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the membership reconciliation engine.
type Metrics struct {
	// Webhook events by action and outcome ("applied", "skipped",
	// "ignored", "failed")
	Events *prometheus.CounterVec

	// Members created from membership events
	MembersCreated prometheus.Counter
}

// New creates a new Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studbook_membership_events_total",
			Help: "Total membership webhook events by action and outcome",
		}, []string{"action", "outcome"}),
		MembersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studbook_membership_members_created_total",
			Help: "Total members created from membership events",
		}),
	}
}

// IncrementEvent records a processed webhook event.
func (m *Metrics) IncrementEvent(action, outcome string) {
	if m != nil {
		m.Events.WithLabelValues(action, outcome).Inc()
	}
}

// IncrementMembersCreated records a member created from an event.
func (m *Metrics) IncrementMembersCreated() {
	if m != nil {
		m.MembersCreated.Inc()
	}
}
