package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	m := NewPaymentMetrics(prometheus.NewRegistry())

	m.RecordGatewayCall("verify_payment", true, 120*time.Millisecond)
	m.RecordGatewayCall("verify_payment", false, time.Second)
	m.RecordWebhook("", "ignored")
	m.RecordSignatureFailure("webhook")

	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("verify_payment", "success")); got != 1 {
		t.Errorf("success calls = %v", got)
	}
	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("verify_payment", "failure")); got != 1 {
		t.Errorf("failed calls = %v", got)
	}
	if got := testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("unknown", "ignored")); got != 1 {
		t.Errorf("unknown webhooks = %v", got)
	}
	if got := testutil.ToFloat64(m.SignatureFailuresTotal.WithLabelValues("webhook")); got != 1 {
		t.Errorf("signature failures = %v", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *PaymentMetrics
	m.RecordGatewayCall("verify_payment", true, time.Second)
	m.RecordTransactionCompleted("success", "webhook", 100)
	m.RecordRefundRequested("refund", "accepted")
	m.RecordRefundCompleted("success", "poll")
	m.RecordWebhook("payment_success", "processed")
	m.RecordSignatureFailure("response")
	m.RecordTransactionInitiated("sandbox")
}
