package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultWebhookRepository struct {
	DB *gorm.DB
}

func NewDefaultWebhookRepository(db *gorm.DB) *DefaultWebhookRepository {
	return &DefaultWebhookRepository{DB: db}
}

// Save relies on the unique webhook_id index: a redelivery inserts nothing
// and the first stored copy is returned.
func (r *DefaultWebhookRepository) Save(ctx context.Context, event *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	model := mappers.ToGORMWebhookEvent(event)
	model.ID = uuid.NewString()

	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "webhook_id"}}, DoNothing: true}).
		Create(model)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		stored, err := r.Get(ctx, event.WebhookID)
		return stored, false, err
	}
	return mappers.ToDomainWebhookEvent(model), true, nil
}

func (r *DefaultWebhookRepository) Get(ctx context.Context, webhookID string) (*domain.WebhookEvent, error) {
	var model models.WebhookEventModel
	if err := r.DB.WithContext(ctx).First(&model, "webhook_id = ?", webhookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWebhookNotFound
		}
		return nil, err
	}
	return mappers.ToDomainWebhookEvent(&model), nil
}

func (r *DefaultWebhookRepository) SetVerified(ctx context.Context, webhookID string, verified bool) error {
	res := r.DB.WithContext(ctx).Model(&models.WebhookEventModel{}).
		Where("webhook_id = ?", webhookID).
		Update("verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrWebhookNotFound
	}
	return nil
}

// Finish never touches an event that is already processed.
func (r *DefaultWebhookRepository) Finish(ctx context.Context, webhookID string, status domain.WebhookStatus, processingError string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.WebhookEventModel{}).
		Where("webhook_id = ? AND status <> ?", webhookID, domain.WebhookProcessed).
		Updates(map[string]any{
			"status":           status,
			"processing_error": processingError,
			"processed_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, webhookID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *DefaultWebhookRepository) List(ctx context.Context, filter domain.WebhookFilter) ([]*domain.WebhookEvent, error) {
	q := r.DB.WithContext(ctx).Model(&models.WebhookEventModel{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Verified != nil {
		q = q.Where("verified = ?", *filter.Verified)
	}
	if filter.EventType != nil {
		q = q.Where("event_type = ?", *filter.EventType)
	}
	if filter.TxnID != "" {
		q = q.Where("txnid = ?", filter.TxnID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var rows []models.WebhookEventModel
	if err := q.Order("received_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.WebhookEvent, 0, len(rows))
	for i := range rows {
		out = append(out, mappers.ToDomainWebhookEvent(&rows[i]))
	}
	return out, nil
}
