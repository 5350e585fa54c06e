package refund

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
	"github.com/shopspring/decimal"
)

func (uc *DefaultRefundUsecase) GetRefund(ctx context.Context, refundID string) (*domain.Refund, error) {
	return uc.refundRepo.GetByRefundID(ctx, refundID)
}

func (uc *DefaultRefundUsecase) FindByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*domain.Refund, error) {
	return uc.refundRepo.GetByGatewayRefundID(ctx, gatewayRefundID)
}

// ListRefunds fails with ErrTransactionNotFound for an unknown txnid
// rather than returning an empty list.
func (uc *DefaultRefundUsecase) ListRefunds(ctx context.Context, txnID string) ([]*domain.Refund, error) {
	if _, err := uc.txRepo.GetByTxnID(ctx, txnID); err != nil {
		return nil, err
	}
	return uc.refundRepo.ListByTxnID(ctx, txnID)
}

func (uc *DefaultRefundUsecase) GetRefundSummary(ctx context.Context, txnID string) (*refunddto.RefundSummary, error) {
	tx, err := uc.txRepo.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	refunds, err := uc.refundRepo.ListByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	refunded, reserved := decimal.Zero, decimal.Zero
	for _, r := range refunds {
		if r.Status == domain.RefundSuccess {
			refunded = refunded.Add(r.Amount)
		}
		if r.Status.Reserves() {
			reserved = reserved.Add(r.Amount)
		}
	}
	available := decimal.Zero
	if tx.IsSuccessful() {
		available = tx.RemainingRefundable(reserved)
	}
	return &refunddto.RefundSummary{
		Transaction: tx,
		Refunds:     refunds,
		Refunded:    refunded,
		Remaining:   tx.RemainingRefundable(refunded),
		Available:   available,
		Refundable:  tx.CanBeRefunded(reserved),
	}, nil
}

// ResolveRefund finds the refund a gateway report is about: by the
// gateway's request id first, then by the token we sent, which is our
// refund id.
func (uc *DefaultRefundUsecase) ResolveRefund(ctx context.Context, requestID, token string) (*domain.Refund, error) {
	if requestID != "" {
		r, err := uc.refundRepo.GetByGatewayRefundID(ctx, requestID)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, domain.ErrRefundNotFound) {
			return nil, err
		}
	}
	if token != "" {
		return uc.refundRepo.GetByRefundID(ctx, token)
	}
	return nil, domain.ErrRefundNotFound
}
