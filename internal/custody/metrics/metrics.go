package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the custody lifecycle engine.
type Metrics struct {
	Transfers     *prometheus.CounterVec
	KeyDateWrites *prometheus.CounterVec
}

// New creates a new Metrics instance with all custody metrics registered.
func New() *Metrics {
	return &Metrics{
		Transfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casework_custody_transfers_total",
			Help: "Total institution transfer attempts by outcome (applied, ignored, rejected)",
		}, []string{"outcome"}),
		KeyDateWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casework_custody_key_date_writes_total",
			Help: "Total custody key date writes by operation (upsert, delete, replace)",
		}, []string{"operation"}),
	}
}

// IncrementTransfer records a transfer attempt outcome.
func (m *Metrics) IncrementTransfer(outcome string) {
	m.Transfers.WithLabelValues(outcome).Inc()
}

// IncrementKeyDateWrite records a key date write.
func (m *Metrics) IncrementKeyDateWrite(operation string) {
	m.KeyDateWrites.WithLabelValues(operation).Inc()
}
