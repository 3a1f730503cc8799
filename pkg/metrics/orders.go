package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle activity.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	checkouts   prometheus.Counter
	orders      prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Applied order status transitions, by action and resulting status.",
	}, []string{"action", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_rejections_total",
		Help: "Rejected order actions, by action.",
	}, []string{"action"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Completed checkout transactions.",
	})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created across all checkouts.",
	})
	reg.MustRegister(transitions, rejections, checkouts, orders)
	return &OrderMetrics{
		transitions: transitions,
		rejections:  rejections,
		checkouts:   checkouts,
		orders:      orders,
	}
}

// IncTransition increments the transition counter for the action and resulting status.
func (o *OrderMetrics) IncTransition(action, to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(to)).Inc()
}

// IncRejection increments the rejection counter for the action.
func (o *OrderMetrics) IncRejection(action string) {
	if o == nil || o.rejections == nil {
		return
	}
	o.rejections.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveCheckout records a completed checkout and the number of orders it produced.
func (o *OrderMetrics) ObserveCheckout(orderCount int) {
	if o == nil || o.checkouts == nil {
		return
	}
	o.checkouts.Inc()
	o.orders.Add(float64(orderCount))
}
