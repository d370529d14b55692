package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout and order lifecycle counters.
type OrderMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	placed           *prometheus.CounterVec
	settled          *prometheus.CounterVec
	delivery         *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created through checkout.",
	}, []string{"payment_method"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Orders reaching a terminal status.",
	}, []string{"status"})
	delivery := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_transitions_total",
		Help: "Delivery status transitions applied by operators or payment flow.",
	}, []string{"to"})
	reg.MustRegister(checkoutDuration, placed, settled, delivery)
	return &OrderMetrics{
		checkoutDuration: checkoutDuration,
		placed:           placed,
		settled:          settled,
		delivery:         delivery,
	}
}

// ObserveCheckout records the duration of one checkout attempt.
func (m *OrderMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncPlaced increments the placed counter for the given payment method.
func (m *OrderMetrics) IncPlaced(paymentMethod string) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncSettled increments the terminal-status counter.
func (m *OrderMetrics) IncSettled(status string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncDeliveryTransition increments the delivery transition counter.
func (m *OrderMetrics) IncDeliveryTransition(to string) {
	if m == nil || m.delivery == nil {
		return
	}
	m.delivery.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
