package mappers

import (
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
)

func ToDomainRefund(model *models.RefundModel) *domain.Refund {
	return &domain.Refund{
		RefundID:        model.RefundID,
		TxnID:           model.TxnID,
		GatewayID:       model.GatewayID,
		GatewayRefundID: deref(model.GatewayRefundID),
		Amount:          model.Amount,
		Status:          model.Status,
		Type:            model.Type,
		Reason:          model.Reason,
		RawRequest:      toRaw(model.RawRequest),
		RawResponse:     toRaw(model.RawResponse),
		RequestedAt:     model.RequestedAt,
		ProcessedAt:     model.ProcessedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMRefund(refund *domain.Refund) *models.RefundModel {
	return &models.RefundModel{
		RefundID:        refund.RefundID,
		TxnID:           refund.TxnID,
		GatewayID:       refund.GatewayID,
		GatewayRefundID: ref(refund.GatewayRefundID),
		Amount:          refund.Amount,
		Status:          refund.Status,
		Type:            refund.Type,
		Reason:          refund.Reason,
		RawRequest:      ToJSON(refund.RawRequest),
		RawResponse:     ToJSON(refund.RawResponse),
		RequestedAt:     refund.RequestedAt,
		ProcessedAt:     refund.ProcessedAt,
		CreatedAt:       refund.CreatedAt,
		UpdatedAt:       refund.UpdatedAt,
	}
}
