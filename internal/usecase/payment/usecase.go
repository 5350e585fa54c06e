package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
	"github.com/go-playground/validator/v10"
)

type PaymentUsecase interface {
	InitiatePayment(ctx context.Context, input *paymentdto.InitiatePaymentInput) (*paymentdto.InitiatePaymentOutput, error)
	GetCheckout(ctx context.Context, txnID string) (*paymentdto.Checkout, error)
	GetPaymentURL(ctx context.Context, txnID string) (string, error)
	RenderCheckoutForm(ctx context.Context, txnID string) ([]byte, error)
	VerifyPayment(ctx context.Context, txnID string) (*paymentdto.VerifyPaymentOutput, error)
	VerifyByGatewayID(ctx context.Context, gatewayID string) (*paymentdto.VerifyPaymentOutput, error)
	HandleGatewayResponse(ctx context.Context, values map[string]string) (*domain.Transaction, error)
	ApplyOutcome(ctx context.Context, txnID string, outcome domain.TransactionOutcome, source string) (*domain.Transaction, bool, error)
	GetTransaction(ctx context.Context, txnID string) (*domain.Transaction, error)
	GetTransactionByGatewayID(ctx context.Context, gatewayID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input *paymentdto.ListTransactionsInput) (*paymentdto.ListTransactionsOutput, error)
	VerifyStalePending(ctx context.Context, olderThan time.Duration, limit int) (checked, updated int, err error)
}

// Gateway is the part of the PayU client the payment flow needs.
type Gateway interface {
	PaymentURL() string
	VerifyPayment(ctx context.Context, txnIDs ...string) (client.Result, error)
	CheckPayment(ctx context.Context, gatewayID string) (client.Result, error)
}

type Options struct {
	SuccessURL string
	FailureURL string
	Env        string
}

type DefaultPaymentUsecase struct {
	txRepo    domain.TransactionRepository
	gateway   Gateway
	signer    *signature.Signer
	publisher domain.EventPublisher
	metrics   *metrics.PaymentMetrics
	validate  *validator.Validate
	opts      Options
	now       func() time.Time
}

func NewDefaultPaymentUsecase(
	txRepo domain.TransactionRepository,
	gateway Gateway,
	signer *signature.Signer,
	publisher domain.EventPublisher,
	metrics *metrics.PaymentMetrics,
	opts Options,
) *DefaultPaymentUsecase {
	return &DefaultPaymentUsecase{
		txRepo:    txRepo,
		gateway:   gateway,
		signer:    signer,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *DefaultPaymentUsecase) publish(ctx context.Context, tx *domain.Transaction, source string) {
	if uc.publisher == nil {
		return
	}
	event := domain.PaymentEvent{
		Kind:       domain.KindTransaction,
		TxnID:      tx.TxnID,
		GatewayID:  tx.GatewayID,
		Status:     string(tx.Status),
		Amount:     domain.FormatAmount(tx.Amount),
		Source:     source,
		OccurredAt: uc.now(),
	}
	if err := uc.publisher.PublishPaymentEvent(ctx, event); err != nil {
		slog.Error("failed to publish transaction event", "txnid", tx.TxnID, "status", tx.Status, "error", err)
	}
}
