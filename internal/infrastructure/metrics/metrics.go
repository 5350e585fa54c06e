package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics holds every collector of the service. A nil
// *PaymentMetrics is valid and records nothing.
type PaymentMetrics struct {
	// Gateway server-to-server calls
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Transactions
	TransactionsInitiatedTotal *prometheus.CounterVec
	TransactionsCompletedTotal *prometheus.CounterVec
	TransactionAmountTotal     *prometheus.CounterVec

	// Refunds
	RefundsRequestedTotal *prometheus.CounterVec
	RefundsCompletedTotal *prometheus.CounterVec

	// Webhooks and signatures
	WebhooksTotal          *prometheus.CounterVec
	SignatureFailuresTotal *prometheus.CounterVec
}

// NewPaymentMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	factory := promauto.With(reg)
	return &PaymentMetrics{
		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_gateway_calls_total",
				Help: "Server-to-server gateway calls by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payu_gateway_call_duration_seconds",
				Help:    "Latency of gateway calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command"},
		),
		TransactionsInitiatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_transactions_initiated_total",
				Help: "Payment transactions created locally",
			},
			[]string{"env"},
		),
		TransactionsCompletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_transactions_completed_total",
				Help: "Transactions that reached a terminal status, by status and trigger",
			},
			[]string{"status", "source"},
		),
		TransactionAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_transaction_amount_total",
				Help: "Sum of amounts of completed transactions",
			},
			[]string{"status"},
		),
		RefundsRequestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_refunds_requested_total",
				Help: "Refund requests accepted or rejected locally",
			},
			[]string{"type", "result"},
		),
		RefundsCompletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_refunds_completed_total",
				Help: "Refunds that reached a terminal status",
			},
			[]string{"status", "source"},
		),
		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_webhooks_total",
				Help: "Webhook events by event type and final status",
			},
			[]string{"event_type", "status"},
		),
		SignatureFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payu_signature_failures_total",
				Help: "Gateway payloads rejected because the hash did not match",
			},
			[]string{"source"},
		),
	}
}

// RecordGatewayCall records one server-to-server call
func (m *PaymentMetrics) RecordGatewayCall(command string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.GatewayCallsTotal.WithLabelValues(command, outcome).Inc()
	m.GatewayCallDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *PaymentMetrics) RecordTransactionInitiated(env string) {
	if m == nil {
		return
	}
	m.TransactionsInitiatedTotal.WithLabelValues(env).Inc()
}

// RecordTransactionCompleted records a committed terminal transition
func (m *PaymentMetrics) RecordTransactionCompleted(status, source string, amount float64) {
	if m == nil {
		return
	}
	m.TransactionsCompletedTotal.WithLabelValues(status, source).Inc()
	m.TransactionAmountTotal.WithLabelValues(status).Add(amount)
}

func (m *PaymentMetrics) RecordRefundRequested(refundType, result string) {
	if m == nil {
		return
	}
	m.RefundsRequestedTotal.WithLabelValues(refundType, result).Inc()
}

func (m *PaymentMetrics) RecordRefundCompleted(status, source string) {
	if m == nil {
		return
	}
	m.RefundsCompletedTotal.WithLabelValues(status, source).Inc()
}

func (m *PaymentMetrics) RecordWebhook(eventType, status string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.WebhooksTotal.WithLabelValues(eventType, status).Inc()
}

func (m *PaymentMetrics) RecordSignatureFailure(source string) {
	if m == nil {
		return
	}
	m.SignatureFailuresTotal.WithLabelValues(source).Inc()
}
