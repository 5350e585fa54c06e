package refund

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
)

const (
	requestAccepted      = "accepted"
	requestRejected      = "rejected"
	requestDeclined      = "declined"
	requestIndeterminate = "indeterminate"
)

// RequestRefund reserves the amount against the transaction, then asks the
// gateway to refund it with the refund id as the deduplication token.
//
// A gateway acknowledgement moves the refund to processing and an explicit
// rejection to failed. When the outcome is unknown (transport failure or an
// empty body) the refund stays pending and PollRefunds settles it.
func (uc *DefaultRefundUsecase) RequestRefund(ctx context.Context, input *refunddto.RequestRefundInput) (*refunddto.RequestRefundOutput, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	refundType := domain.RefundTypeRefund
	if input.Type != "" {
		refundType = domain.RefundType(input.Type)
	}

	tx, err := uc.txRepo.GetByTxnID(ctx, input.TxnID)
	if err != nil {
		return nil, err
	}
	if !tx.IsSuccessful() {
		uc.metrics.RecordRefundRequested(string(refundType), requestRejected)
		return nil, fmt.Errorf("%w: transaction %s is %s", domain.ErrNotRefundable, tx.TxnID, tx.Status)
	}

	r := &domain.Refund{
		RefundID:    domain.NewRefundID(),
		TxnID:       tx.TxnID,
		GatewayID:   tx.GatewayID,
		Amount:      amount,
		Status:      domain.RefundPending,
		Type:        refundType,
		Reason:      input.Reason,
		RequestedAt: uc.now(),
	}
	params := client.CancelRefundParams{GatewayID: tx.GatewayID, Token: r.RefundID, Amount: amount}
	if r.RawRequest, err = json.Marshal(map[string]string{
		"command": client.CmdCancelRefund,
		"var1":    params.GatewayID,
		"var2":    params.Token,
		"var3":    domain.FormatAmount(amount),
	}); err != nil {
		return nil, err
	}

	if err := uc.refundRepo.CreateWithinCap(ctx, r); err != nil {
		uc.metrics.RecordRefundRequested(string(refundType), requestRejected)
		slog.Warn("refund rejected", "txnid", tx.TxnID, "amount", domain.FormatAmount(amount), "error", err)
		return nil, err
	}
	slog.Info("refund reserved", "refund_id", r.RefundID, "txnid", r.TxnID, "amount", domain.FormatAmount(amount))

	res, err := uc.gateway.CancelRefund(ctx, params)
	if err != nil {
		// Never reached the gateway.
		if _, _, uerr := uc.ApplyRefundUpdate(ctx, r.RefundID, domain.RefundUpdate{Status: domain.RefundFailed}, domain.SourceRequest); uerr != nil {
			slog.Error("failed to release refund reservation", "refund_id", r.RefundID, "error", uerr)
		}
		uc.metrics.RecordRefundRequested(string(refundType), requestRejected)
		return nil, err
	}

	out := &refunddto.RequestRefundOutput{Refund: r, Gateway: res}
	var update domain.RefundUpdate
	switch {
	case res.OK():
		update = domain.RefundUpdate{
			Status:          domain.RefundProcessing,
			GatewayRefundID: res.RefundAck().RequestID.String(),
			RawResponse:     res.Raw(),
		}
		uc.metrics.RecordRefundRequested(string(refundType), requestAccepted)
	case res.Empty() || res.IsError():
		uc.metrics.RecordRefundRequested(string(refundType), requestIndeterminate)
		slog.Warn("refund outcome unknown, left pending", "refund_id", r.RefundID, "message", res.Message())
		return out, nil
	default:
		update = domain.RefundUpdate{Status: domain.RefundFailed, RawResponse: res.Raw()}
		uc.metrics.RecordRefundRequested(string(refundType), requestDeclined)
		slog.Warn("gateway declined refund", "refund_id", r.RefundID, "message", res.Message())
	}

	updated, _, err := uc.ApplyRefundUpdate(ctx, r.RefundID, update, domain.SourceRequest)
	if err != nil {
		return nil, err
	}
	out.Refund = updated
	return out, nil
}
