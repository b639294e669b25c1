package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records payment attempt outcomes and checkout latency.
type PaymentMetrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orders   prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Payment attempts grouped by classified outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end checkout duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully recorded after a confirmed payment.",
	})
	reg.MustRegister(outcomes, duration, orders)
	return &PaymentMetrics{
		outcomes: outcomes,
		duration: duration,
		orders:   orders,
	}
}

// IncOutcome increments the counter for the classified payment outcome.
func (p *PaymentMetrics) IncOutcome(outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCheckout records how long a checkout took, labelled by result.
func (p *PaymentMetrics) ObserveCheckout(result string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncOrderCreated increments the recorded-order counter.
func (p *PaymentMetrics) IncOrderCreated() {
	if p == nil || p.orders == nil {
		return
	}
	p.orders.Inc()
}
