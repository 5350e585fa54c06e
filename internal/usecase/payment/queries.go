package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
)

func (uc *DefaultPaymentUsecase) GetTransaction(ctx context.Context, txnID string) (*domain.Transaction, error) {
	return uc.txRepo.GetByTxnID(ctx, txnID)
}

func (uc *DefaultPaymentUsecase) GetTransactionByGatewayID(ctx context.Context, gatewayID string) (*domain.Transaction, error) {
	return uc.txRepo.GetByGatewayID(ctx, gatewayID)
}

func (uc *DefaultPaymentUsecase) ListTransactions(ctx context.Context, input *paymentdto.ListTransactionsInput) (*paymentdto.ListTransactionsOutput, error) {
	filter := domain.TransactionFilter{
		Email: input.Email,
		From:  input.From,
		To:    input.To,
		Page:  input.Page,
		Limit: input.Limit,
	}
	if input.Status != "" {
		status := domain.TransactionStatus(input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidParams, input.Status)
		}
		filter.Status = &status
	}
	if input.PaymentMode != "" {
		mode := domain.ParsePaymentMode(input.PaymentMode)
		if mode == "" {
			return nil, fmt.Errorf("%w: unknown payment mode %q", domain.ErrInvalidParams, input.PaymentMode)
		}
		filter.PaymentMode = &mode
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	txs, total, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(filter.Limit)
	if total%int64(filter.Limit) != 0 {
		totalPages++
	}
	return &paymentdto.ListTransactionsOutput{
		Transactions: txs,
		Pagination: paymentdto.Pagination{
			CurrentPage:  int32(filter.Page),
			TotalPages:   int32(totalPages),
			TotalItems:   int32(total),
			ItemsPerPage: int32(filter.Limit),
		},
	}, nil
}

// VerifyStalePending re-queries transactions that stayed pending longer
// than olderThan. Per-transaction failures are logged and skipped.
func (uc *DefaultPaymentUsecase) VerifyStalePending(ctx context.Context, olderThan time.Duration, limit int) (checked, updated int, err error) {
	stale, err := uc.txRepo.FindStalePending(ctx, uc.now().Add(-olderThan), limit)
	if err != nil {
		return 0, 0, err
	}
	for _, tx := range stale {
		if err := ctx.Err(); err != nil {
			return checked, updated, err
		}
		checked++
		out, err := uc.VerifyPayment(ctx, tx.TxnID)
		if err != nil {
			slog.Error("stale pending verification failed", "txnid", tx.TxnID, "error", err)
			continue
		}
		if out.Changed {
			updated++
		}
	}
	return checked, updated, nil
}
