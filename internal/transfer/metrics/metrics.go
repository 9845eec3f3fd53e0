package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ownership-transfer module.
type Metrics struct {
	// Transfer requests opened
	Requested prometheus.Counter

	// Transfer resolutions by outcome ("approved", "rejected")
	Resolutions *prometheus.CounterVec
}

// New creates a new Metrics instance with all transfer module metrics registered.
func New() *Metrics {
	return &Metrics{
		Requested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studbook_transfer_requests_total",
			Help: "Total ownership-transfer requests opened",
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studbook_transfer_resolutions_total",
			Help: "Total ownership-transfer resolutions by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementRequested records a transfer request entering the queue.
func (m *Metrics) IncrementRequested() {
	if m != nil {
		m.Requested.Inc()
	}
}

// IncrementResolution records a transfer resolution outcome.
func (m *Metrics) IncrementResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}
