package mappers

import (
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
)

func ToDomainWebhookEvent(model *models.WebhookEventModel) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		WebhookID:       model.WebhookID,
		TxnID:           deref(model.TxnID),
		GatewayID:       model.GatewayID,
		EventType:       model.EventType,
		Status:          model.Status,
		Payload:         toRaw(model.Payload),
		Headers:         toRaw(model.Headers),
		Signature:       model.Signature,
		Verified:        model.Verified,
		ProcessingError: model.ProcessingError,
		ReceivedAt:      model.ReceivedAt,
		ProcessedAt:     model.ProcessedAt,
	}
}

func ToGORMWebhookEvent(event *domain.WebhookEvent) *models.WebhookEventModel {
	return &models.WebhookEventModel{
		WebhookID:       event.WebhookID,
		TxnID:           ref(event.TxnID),
		GatewayID:       event.GatewayID,
		EventType:       event.EventType,
		Status:          event.Status,
		Payload:         ToJSON(event.Payload),
		Headers:         ToJSON(event.Headers),
		Signature:       event.Signature,
		Verified:        event.Verified,
		ProcessingError: event.ProcessingError,
		ReceivedAt:      event.ReceivedAt,
		ProcessedAt:     event.ProcessedAt,
	}
}
