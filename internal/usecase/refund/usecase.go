package refund

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
	"github.com/go-playground/validator/v10"
)

type RefundUsecase interface {
	RequestRefund(ctx context.Context, input *refunddto.RequestRefundInput) (*refunddto.RequestRefundOutput, error)
	ApplyRefundUpdate(ctx context.Context, refundID string, update domain.RefundUpdate, source string) (*domain.Refund, bool, error)
	GetRefund(ctx context.Context, refundID string) (*domain.Refund, error)
	FindByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*domain.Refund, error)
	ResolveRefund(ctx context.Context, requestID, token string) (*domain.Refund, error)
	ListRefunds(ctx context.Context, txnID string) ([]*domain.Refund, error)
	GetRefundSummary(ctx context.Context, txnID string) (*refunddto.RefundSummary, error)
	PollRefunds(ctx context.Context, limit int) (checked, updated int, err error)
	CancelRefund(ctx context.Context, refundID, reason string) (*domain.Refund, error)
}

// Gateway is the refund part of the PayU client.
type Gateway interface {
	CancelRefund(ctx context.Context, p client.CancelRefundParams) (client.Result, error)
	RefundStatus(ctx context.Context, requestID string) (client.Result, error)
	RefundStatusByGatewayID(ctx context.Context, gatewayID string) (client.Result, error)
}

type DefaultRefundUsecase struct {
	txRepo     domain.TransactionRepository
	refundRepo domain.RefundRepository
	gateway    Gateway
	publisher  domain.EventPublisher
	metrics    *metrics.PaymentMetrics
	validate   *validator.Validate
	now        func() time.Time
	lostAfter  time.Duration
}

// DefaultLostAfter is how long a pending refund may stay unknown to the
// gateway before PollRefunds cancels it.
const DefaultLostAfter = 24 * time.Hour

type Option func(*DefaultRefundUsecase)

// WithLostAfter sets the grace period for refunds the gateway never
// recorded. Zero disables the cancellation.
func WithLostAfter(d time.Duration) Option {
	return func(uc *DefaultRefundUsecase) { uc.lostAfter = d }
}

func NewDefaultRefundUsecase(
	txRepo domain.TransactionRepository,
	refundRepo domain.RefundRepository,
	gateway Gateway,
	publisher domain.EventPublisher,
	metrics *metrics.PaymentMetrics,
	opts ...Option,
) *DefaultRefundUsecase {
	uc := &DefaultRefundUsecase{
		txRepo:     txRepo,
		refundRepo: refundRepo,
		gateway:    gateway,
		publisher:  publisher,
		metrics:    metrics,
		validate:   validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
		lostAfter:  DefaultLostAfter,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *DefaultRefundUsecase) publish(ctx context.Context, r *domain.Refund, source string) {
	if uc.publisher == nil {
		return
	}
	event := domain.PaymentEvent{
		Kind:       domain.KindRefund,
		TxnID:      r.TxnID,
		RefundID:   r.RefundID,
		GatewayID:  r.GatewayRefundID,
		Status:     string(r.Status),
		Amount:     domain.FormatAmount(r.Amount),
		Source:     source,
		OccurredAt: uc.now(),
	}
	if err := uc.publisher.PublishPaymentEvent(ctx, event); err != nil {
		slog.Error("failed to publish refund event", "refund_id", r.RefundID, "status", r.Status, "error", err)
	}
}
