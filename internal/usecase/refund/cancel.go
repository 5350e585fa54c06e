package refund

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

// CancelRefund is the operator's way out for a refund stuck in pending.
// Only pending refunds qualify: once the gateway acknowledged a refund its
// outcome belongs to the gateway.
func (uc *DefaultRefundUsecase) CancelRefund(ctx context.Context, refundID, reason string) (*domain.Refund, error) {
	r, err := uc.refundRepo.GetByRefundID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if r.Status == domain.RefundCancelled {
		return r, nil
	}
	if r.Status != domain.RefundPending {
		return nil, fmt.Errorf("%w: refund %s is %s", domain.ErrInvalidTransition, r.RefundID, r.Status)
	}

	raw, err := json.Marshal(map[string]string{"cancelled_by": domain.SourceOperator, "reason": reason})
	if err != nil {
		return nil, err
	}
	updated, _, err := uc.ApplyRefundUpdate(ctx, r.RefundID, domain.RefundUpdate{
		Status:      domain.RefundCancelled,
		RawResponse: raw,
		From:        domain.RefundPending,
	}, domain.SourceOperator)
	if err != nil {
		return nil, err
	}
	slog.Info("refund cancelled by operator", "refund_id", r.RefundID, "reason", reason)
	return updated, nil
}
