package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

// ApplyOutcome is the single entry point for gateway-reported transaction
// state. A pending outcome never writes; terminal outcomes go through the
// repository's guarded update.
func (uc *DefaultPaymentUsecase) ApplyOutcome(ctx context.Context, txnID string, outcome domain.TransactionOutcome, source string) (*domain.Transaction, bool, error) {
	if !outcome.Status.Valid() {
		return nil, false, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, outcome.Status)
	}
	if outcome.Status == domain.TransactionPending {
		tx, err := uc.txRepo.GetByTxnID(ctx, txnID)
		return tx, false, err
	}
	if outcome.CompletedAt.IsZero() {
		outcome.CompletedAt = uc.now()
	}

	tx, changed, err := uc.txRepo.ApplyOutcome(ctx, txnID, outcome)
	if err != nil {
		slog.Warn("transaction outcome rejected",
			"txnid", txnID, "status", outcome.Status, "source", source, "error", err)
		return nil, false, err
	}
	if !changed {
		return tx, false, nil
	}

	amount, _ := tx.Amount.Float64()
	uc.metrics.RecordTransactionCompleted(string(tx.Status), source, amount)
	slog.Info("transaction completed", "txnid", tx.TxnID, "status", tx.Status, "gateway_id", tx.GatewayID, "source", source)
	uc.publish(ctx, tx, source)
	return tx, true, nil
}
