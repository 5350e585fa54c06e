package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
)

type WebhookUsecase interface {
	Receive(ctx context.Context, n webhookdto.Notification) (*domain.WebhookEvent, error)
	Reprocess(ctx context.Context, webhookID string) (*domain.WebhookEvent, error)
	GetWebhook(ctx context.Context, webhookID string) (*domain.WebhookEvent, error)
	ListWebhooks(ctx context.Context, input *webhookdto.ListWebhooksInput) ([]*domain.WebhookEvent, error)
}

// PaymentLedger is the transaction side the reconciler drives.
type PaymentLedger interface {
	GetTransaction(ctx context.Context, txnID string) (*domain.Transaction, error)
	ApplyOutcome(ctx context.Context, txnID string, outcome domain.TransactionOutcome, source string) (*domain.Transaction, bool, error)
}

// RefundLedger is the refund side the reconciler drives.
type RefundLedger interface {
	ResolveRefund(ctx context.Context, requestID, token string) (*domain.Refund, error)
	ApplyRefundUpdate(ctx context.Context, refundID string, update domain.RefundUpdate, source string) (*domain.Refund, bool, error)
}

type DefaultWebhookUsecase struct {
	repo     domain.WebhookRepository
	payments PaymentLedger
	refunds  RefundLedger
	signer   *signature.Signer
	metrics  *metrics.PaymentMetrics
	now      func() time.Time
}

func NewDefaultWebhookUsecase(
	repo domain.WebhookRepository,
	payments PaymentLedger,
	refunds RefundLedger,
	signer *signature.Signer,
	metrics *metrics.PaymentMetrics,
) *DefaultWebhookUsecase {
	return &DefaultWebhookUsecase{
		repo:     repo,
		payments: payments,
		refunds:  refunds,
		signer:   signer,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *DefaultWebhookUsecase) GetWebhook(ctx context.Context, webhookID string) (*domain.WebhookEvent, error) {
	return uc.repo.Get(ctx, webhookID)
}

func (uc *DefaultWebhookUsecase) ListWebhooks(ctx context.Context, input *webhookdto.ListWebhooksInput) ([]*domain.WebhookEvent, error) {
	filter := domain.WebhookFilter{TxnID: input.TxnID, Verified: input.Verified, Limit: input.Limit}
	if input.Status != "" {
		status := domain.WebhookStatus(input.Status)
		switch status {
		case domain.WebhookReceived, domain.WebhookProcessed, domain.WebhookFailed, domain.WebhookIgnored:
		default:
			return nil, fmt.Errorf("%w: unknown webhook status %q", domain.ErrInvalidParams, input.Status)
		}
		filter.Status = &status
	}
	if input.EventType != "" {
		et := domain.WebhookEventType(input.EventType)
		filter.EventType = &et
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return uc.repo.List(ctx, filter)
}
