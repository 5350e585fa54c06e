package domain

import (
	"encoding/json"
	"time"
)

type WebhookEventType string

const (
	EventPaymentSuccess WebhookEventType = "payment_success"
	EventPaymentFailed  WebhookEventType = "payment_failed"
	EventPaymentPending WebhookEventType = "payment_pending"
	EventRefundSuccess  WebhookEventType = "refund_success"
	EventRefundFailed   WebhookEventType = "refund_failed"
	EventRefundPending  WebhookEventType = "refund_pending"
	EventSettlement     WebhookEventType = "settlement"
	EventChargeback     WebhookEventType = "chargeback"
	EventDispute        WebhookEventType = "dispute"
)

func (e WebhookEventType) IsPaymentEvent() bool {
	return e == EventPaymentSuccess || e == EventPaymentFailed || e == EventPaymentPending
}

func (e WebhookEventType) IsRefundEvent() bool {
	return e == EventRefundSuccess || e == EventRefundFailed || e == EventRefundPending
}

// IsInformational events are recorded but never move ledger state.
func (e WebhookEventType) IsInformational() bool {
	return e == EventSettlement || e == EventChargeback || e == EventDispute
}

func (e WebhookEventType) Known() bool {
	return e.IsPaymentEvent() || e.IsRefundEvent() || e.IsInformational()
}

type WebhookStatus string

const (
	WebhookReceived  WebhookStatus = "received"
	WebhookProcessed WebhookStatus = "processed"
	WebhookFailed    WebhookStatus = "failed"
	WebhookIgnored   WebhookStatus = "ignored"
)

type WebhookEvent struct {
	WebhookID       string
	TxnID           string
	GatewayID       string
	EventType       WebhookEventType
	Status          WebhookStatus
	Payload         json.RawMessage
	Headers         json.RawMessage
	Signature       string
	Verified        bool
	ProcessingError string
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
}

func (w *WebhookEvent) IsProcessed() bool { return w.Status == WebhookProcessed }

type WebhookFilter struct {
	Status    *WebhookStatus
	Verified  *bool
	EventType *WebhookEventType
	TxnID     string
	Limit     int
}
