package models

import (
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"gorm.io/datatypes"
)

type WebhookEventModel struct {
	ID              string                  `gorm:"primaryKey;type:uuid"`
	WebhookID       string                  `gorm:"size:96;not null;uniqueIndex"`
	TxnID           *string                 `gorm:"column:txnid;size:64;index:idx_webhooks_txnid_event"`
	GatewayID       string                  `gorm:"size:64"`
	EventType       domain.WebhookEventType `gorm:"size:32;index:idx_webhooks_txnid_event"`
	Status          domain.WebhookStatus    `gorm:"size:16;not null;index:idx_webhooks_status_verified"`
	Payload         datatypes.JSON
	Headers         datatypes.JSON
	Signature       string `gorm:"size:128"`
	Verified        bool   `gorm:"not null;default:false;index:idx_webhooks_status_verified"`
	ProcessingError string
	ReceivedAt      time.Time `gorm:"not null"`
	ProcessedAt     *time.Time
}

func (WebhookEventModel) TableName() string { return "webhook_events" }
