package services

import (
	"fulfillment-wms/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics are the warehouse counters exported at /metrics. A nil *Metrics
// records nothing.
type Metrics struct {
	movements   *prometheus.CounterVec
	moved       *prometheus.CounterVec
	failures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wms",
			Name:      "movements_total",
			Help:      "Committed stock movements by action.",
		}, []string{"action"}),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wms",
			Name:      "moved_quantity_total",
			Help:      "Quantity moved in or out of bins by action.",
		}, []string{"action"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wms",
			Name:      "operation_failures_total",
			Help:      "Failed operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wms",
			Name:      "status_transitions_total",
			Help:      "Status writes by entity and target status.",
		}, []string{"entity", "status"}),
	}
	reg.MustRegister(m.movements, m.moved, m.failures, m.transitions)
	return m
}

func (m *Metrics) ObserveMovement(action types.ActionType, qty decimal.Decimal) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(string(action)).Inc()
	m.moved.WithLabelValues(string(action)).Add(qty.InexactFloat64())
}

func (m *Metrics) ObserveFailure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(operation, types.ErrorKind(err)).Inc()
}

func (m *Metrics) ObserveTransition(entity, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, status).Inc()
}
