package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
	"github.com/shopspring/decimal"
)

// VerifyPayment asks the gateway for the transaction and applies a
// terminal status it reports. A failed call leaves the ledger untouched and
// is visible in Gateway.
func (uc *DefaultPaymentUsecase) VerifyPayment(ctx context.Context, txnID string) (*paymentdto.VerifyPaymentOutput, error) {
	tx, err := uc.txRepo.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	res, err := uc.gateway.VerifyPayment(ctx, txnID)
	if err != nil {
		return nil, err
	}
	return uc.applyVerification(ctx, tx, res)
}

func (uc *DefaultPaymentUsecase) VerifyByGatewayID(ctx context.Context, gatewayID string) (*paymentdto.VerifyPaymentOutput, error) {
	res, err := uc.gateway.CheckPayment(ctx, gatewayID)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txRepo.GetByGatewayID(ctx, gatewayID)
	if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}
	if tx == nil {
		// The gateway id is only stored after the first outcome, so fall
		// back to the txnid the gateway reports.
		d, ok := res.TransactionDetails("")
		if !ok || d.TxnID == "" {
			return nil, domain.ErrTransactionNotFound
		}
		if tx, err = uc.txRepo.GetByTxnID(ctx, d.TxnID.String()); err != nil {
			return nil, err
		}
	}
	return uc.applyVerification(ctx, tx, res)
}

func (uc *DefaultPaymentUsecase) applyVerification(ctx context.Context, tx *domain.Transaction, res client.Result) (*paymentdto.VerifyPaymentOutput, error) {
	out := &paymentdto.VerifyPaymentOutput{Transaction: tx, Gateway: res}
	if !res.OK() {
		slog.Warn("verify call did not succeed", "txnid", tx.TxnID, "message", res.Message())
		return out, nil
	}
	d, ok := res.TransactionDetails(tx.TxnID)
	if !ok {
		return out, nil
	}
	if amt := d.Amount.String(); amt != "" {
		reported, err := decimal.NewFromString(amt)
		if err != nil || !reported.Equal(tx.Amount) {
			return out, fmt.Errorf("%w: gateway reports %s for %s", domain.ErrInvalidAmount, amt, tx.TxnID)
		}
	}

	outcome := d.Outcome(res.Raw(), uc.now())
	if !outcome.Status.IsTerminal() {
		return out, nil
	}
	updated, changed, err := uc.ApplyOutcome(ctx, tx.TxnID, outcome, domain.SourceVerify)
	if err != nil {
		return out, err
	}
	out.Transaction, out.Changed = updated, changed
	return out, nil
}
