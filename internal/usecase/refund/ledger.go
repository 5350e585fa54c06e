package refund

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

// ApplyRefundUpdate moves a refund forward. Repeats of the current status
// are no-ops; moves out of a terminal status are ErrInvalidTransition.
func (uc *DefaultRefundUsecase) ApplyRefundUpdate(ctx context.Context, refundID string, update domain.RefundUpdate, source string) (*domain.Refund, bool, error) {
	switch update.Status {
	case domain.RefundPending, domain.RefundProcessing, domain.RefundSuccess, domain.RefundFailed, domain.RefundCancelled:
	default:
		return nil, false, fmt.Errorf("%w: unknown refund status %q", domain.ErrInvalidTransition, update.Status)
	}
	if update.At.IsZero() {
		update.At = uc.now()
	}

	r, changed, err := uc.refundRepo.UpdateStatus(ctx, refundID, update)
	if err != nil {
		slog.Warn("refund update rejected", "refund_id", refundID, "status", update.Status, "source", source, "error", err)
		return nil, false, err
	}
	if !changed {
		return r, false, nil
	}

	if r.Status.IsTerminal() {
		uc.metrics.RecordRefundCompleted(string(r.Status), source)
	}
	slog.Info("refund updated", "refund_id", r.RefundID, "txnid", r.TxnID, "status", r.Status, "source", source)
	uc.publish(ctx, r, source)
	return r, true, nil
}
