package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

type PaymentEventKind string

const (
	KindTransaction PaymentEventKind = "transaction"
	KindRefund      PaymentEventKind = "refund"
)

// PaymentEvent is published after every committed ledger change.
type PaymentEvent struct {
	Kind       PaymentEventKind `json:"kind"`
	TxnID      string           `json:"txnid"`
	RefundID   string           `json:"refund_id,omitempty"`
	GatewayID  string           `json:"gateway_id,omitempty"`
	Status     string           `json:"status"`
	Amount     string           `json:"amount"`
	Source     string           `json:"source"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}

// Sources of a ledger change, carried in PaymentEvent.Source.
const (
	SourceWebhook  = "webhook"
	SourceResponse = "response"
	SourceVerify   = "verify"
	SourcePoll     = "poll"
	SourceRequest  = "request"
	SourceOperator = "operator"
)
