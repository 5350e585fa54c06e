package refund

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

var pollStatuses = []domain.RefundStatus{domain.RefundPending, domain.RefundProcessing}

// PollRefunds asks the gateway about every refund that is not settled yet
// and applies what it reports. Refunds the gateway never acknowledged are
// looked up through the transaction and matched on their token; once the
// gateway has answered without that token for longer than the lost-after
// period the refund is cancelled and its reservation released.
func (uc *DefaultRefundUsecase) PollRefunds(ctx context.Context, limit int) (checked, updated int, err error) {
	open, err := uc.refundRepo.ListByStatus(ctx, pollStatuses, limit)
	if err != nil {
		return 0, 0, err
	}
	for _, r := range open {
		if err := ctx.Err(); err != nil {
			return checked, updated, err
		}
		checked++

		action, res, ok := uc.lookupAction(ctx, r)
		if !ok {
			if res.OK() && uc.isLost(r) {
				if uc.cancelLost(ctx, r, res) {
					updated++
				}
			}
			continue
		}
		status := action.RefundStatus()
		if status == "" {
			slog.Warn("unrecognised refund status from gateway", "refund_id", r.RefundID, "status", action.Status)
			continue
		}
		_, changed, err := uc.ApplyRefundUpdate(ctx, r.RefundID, domain.RefundUpdate{
			Status:          status,
			GatewayRefundID: action.RequestID.String(),
			RawResponse:     res.Raw(),
		}, domain.SourcePoll)
		if err != nil {
			slog.Error("refund poll update failed", "refund_id", r.RefundID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}
	return checked, updated, nil
}

func (uc *DefaultRefundUsecase) lookupAction(ctx context.Context, r *domain.Refund) (client.RefundAction, client.Result, bool) {
	var (
		res client.Result
		err error
	)
	switch {
	case r.GatewayRefundID != "":
		res, err = uc.gateway.RefundStatus(ctx, r.GatewayRefundID)
	case r.GatewayID != "":
		res, err = uc.gateway.RefundStatusByGatewayID(ctx, r.GatewayID)
	default:
		return client.RefundAction{}, res, false
	}
	if err != nil {
		slog.Error("refund status call rejected", "refund_id", r.RefundID, "error", err)
		return client.RefundAction{}, client.Result{}, false
	}
	if !res.OK() {
		return client.RefundAction{}, res, false
	}

	for _, a := range res.RefundActions() {
		if r.GatewayRefundID != "" && a.RequestID.String() == r.GatewayRefundID {
			return a, res, true
		}
		if a.Token.String() == r.RefundID {
			return a, res, true
		}
	}
	return client.RefundAction{}, res, false
}

// isLost is true for a refund the gateway never acknowledged and that has
// been pending past the grace period.
func (uc *DefaultRefundUsecase) isLost(r *domain.Refund) bool {
	return uc.lostAfter > 0 &&
		r.Status == domain.RefundPending &&
		r.GatewayRefundID == "" &&
		uc.now().Sub(r.RequestedAt) > uc.lostAfter
}

func (uc *DefaultRefundUsecase) cancelLost(ctx context.Context, r *domain.Refund, res client.Result) bool {
	slog.Warn("refund unknown to gateway, cancelling", "refund_id", r.RefundID, "txnid", r.TxnID, "requested_at", r.RequestedAt)
	_, changed, err := uc.ApplyRefundUpdate(ctx, r.RefundID, domain.RefundUpdate{
		Status:      domain.RefundCancelled,
		RawResponse: res.Raw(),
		From:        domain.RefundPending,
	}, domain.SourcePoll)
	if err != nil {
		slog.Error("refund poll update failed", "refund_id", r.RefundID, "error", err)
		return false
	}
	return changed
}
