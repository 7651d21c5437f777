package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики операций чекаута и реконсиляции.
type CheckoutMetrics struct {
	// Счётчики операций
	ordersCreated   prometheus.Counter
	quotesIssued    prometheus.Counter
	staleQuotes     prometheus.Counter
	couponRejected  *prometheus.CounterVec
	paymentsApplied *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec

	// Гистограммы времени выполнения
	gatewayDuration *prometheus.HistogramVec

	// Gauge для заказов, ожидающих оплаты
	pendingOrders prometheus.Gauge
}

// NewCheckoutMetrics создаёт новый экземпляр метрик чекаута.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_created_total",
			Help: "Total number of orders created",
		}),
		quotesIssued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_quotes_issued_total",
			Help: "Total number of checkout quotes issued",
		}),
		staleQuotes: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_stale_quotes_total",
			Help: "Total number of order submissions rejected due to a stale quote",
		}),
		couponRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_coupon_rejections_total",
			Help: "Total number of coupon rejections grouped by reason",
		}, []string{"reason"}),
		paymentsApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_payments_applied_total",
			Help: "Total number of payment reconciliations grouped by status",
		}, []string{"status"}),
		webhookEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_webhook_events_total",
			Help: "Total number of gateway webhook deliveries grouped by gateway and result",
		}, []string{"gateway", "result"}),
		gatewayDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"gateway", "operation"}),
		pendingOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_pending_orders",
			Help: "Number of orders awaiting payment confirmation",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *CheckoutMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.pendingOrders.Inc()
}

// RecordQuoteIssued увеличивает счётчик выданных котировок.
func (m *CheckoutMetrics) RecordQuoteIssued() {
	m.quotesIssued.Inc()
}

// RecordStaleQuote увеличивает счётчик отклонений по устаревшей котировке.
func (m *CheckoutMetrics) RecordStaleQuote() {
	m.staleQuotes.Inc()
}

// RecordCouponRejected увеличивает счётчик отказов купона по причине.
func (m *CheckoutMetrics) RecordCouponRejected(reason string) {
	m.couponRejected.WithLabelValues(reason).Inc()
}

// RecordPaymentApplied фиксирует применённую реконсиляцию оплаты.
func (m *CheckoutMetrics) RecordPaymentApplied(status string) {
	m.paymentsApplied.WithLabelValues(status).Inc()
	m.pendingOrders.Dec()
}

// RecordWebhookEvent фиксирует доставку webhook-уведомления.
func (m *CheckoutMetrics) RecordWebhookEvent(gateway, result string) {
	m.webhookEvents.WithLabelValues(gateway, result).Inc()
}

// RecordGatewayDuration записывает длительность обращения к шлюзу.
func (m *CheckoutMetrics) RecordGatewayDuration(gateway, operation string, duration time.Duration) {
	m.gatewayDuration.WithLabelValues(gateway, operation).Observe(duration.Seconds())
}
