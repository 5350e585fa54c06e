package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
)

// HandleGatewayResponse processes the form the gateway posts to surl/furl.
// Nothing is written unless the response hash verifies.
func (uc *DefaultPaymentUsecase) HandleGatewayResponse(ctx context.Context, values map[string]string) (*domain.Transaction, error) {
	txnID := values["txnid"]
	if txnID == "" {
		return nil, fmt.Errorf("%w: txnid is missing", domain.ErrInvalidParams)
	}
	if values["key"] != uc.signer.Key() || !uc.signer.VerifyValues(values) {
		uc.metrics.RecordSignatureFailure(domain.SourceResponse)
		slog.Warn("gateway response hash mismatch", "txnid", txnID)
		return nil, domain.ErrSignatureMismatch
	}

	tx, err := uc.txRepo.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	reported, err := decimal.NewFromString(values["amount"])
	if err != nil || !reported.Equal(tx.Amount) {
		return nil, fmt.Errorf("%w: response amount %q does not match %s", domain.ErrInvalidAmount, values["amount"], domain.FormatAmount(tx.Amount))
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	outcome := client.OutcomeFromValues(values, raw, uc.now())
	if outcome.Status == "" {
		return nil, fmt.Errorf("%w: unrecognised status %q", domain.ErrInvalidParams, values["status"])
	}

	updated, _, err := uc.ApplyOutcome(ctx, txnID, outcome, domain.SourceResponse)
	return updated, err
}
