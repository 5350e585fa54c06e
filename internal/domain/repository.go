package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByTxnID(ctx context.Context, txnID string) (*Transaction, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*Transaction, error)
	// ApplyOutcome writes the outcome only while the stored status allows
	// it (ResolveTransactionTransition is the commit condition). changed is
	// false for an idempotent repeat.
	ApplyOutcome(ctx context.Context, txnID string, outcome TransactionOutcome) (tx *Transaction, changed bool, err error)
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, int64, error)
	FindStalePending(ctx context.Context, initiatedBefore time.Time, limit int) ([]*Transaction, error)
}

type RefundRepository interface {
	// CreateWithinCap persists the refund only if the transaction exists, is
	// successful and the reserved refund total stays within its amount.
	CreateWithinCap(ctx context.Context, refund *Refund) error
	GetByRefundID(ctx context.Context, refundID string) (*Refund, error)
	GetByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*Refund, error)
	ListByTxnID(ctx context.Context, txnID string) ([]*Refund, error)
	ListByStatus(ctx context.Context, statuses []RefundStatus, limit int) ([]*Refund, error)
	UpdateStatus(ctx context.Context, refundID string, update RefundUpdate) (refund *Refund, changed bool, err error)
	SumSucceeded(ctx context.Context, txnID string) (decimal.Decimal, error)
}

type WebhookRepository interface {
	// Save inserts the event unless one with the same webhook id exists, in
	// which case the stored event is returned and created is false.
	Save(ctx context.Context, event *WebhookEvent) (stored *WebhookEvent, created bool, err error)
	Get(ctx context.Context, webhookID string) (*WebhookEvent, error)
	SetVerified(ctx context.Context, webhookID string, verified bool) error
	// Finish records the final status unless the event is already processed.
	Finish(ctx context.Context, webhookID string, status WebhookStatus, processingError string, at time.Time) (bool, error)
	List(ctx context.Context, filter WebhookFilter) ([]*WebhookEvent, error)
}
