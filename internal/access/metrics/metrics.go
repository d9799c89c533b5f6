package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access gate.
type Metrics struct {
	Denied *prometheus.CounterVec
}

// New creates a new Metrics instance with all access gate metrics registered.
func New() *Metrics {
	return &Metrics{
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casework_access_denied_total",
			Help: "Total access gate denials by check (exclusion or restriction)",
		}, []string{"check"}),
	}
}

// IncrementDenied records a denial for the given check.
func (m *Metrics) IncrementDenied(check string) {
	m.Denied.WithLabelValues(check).Inc()
}
