package models

import (
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RefundModel struct {
	ID              string              `gorm:"primaryKey;type:uuid"`
	RefundID        string              `gorm:"size:64;not null;uniqueIndex"`
	TxnID           string              `gorm:"column:txnid;size:64;not null;index:idx_refunds_txnid_status"`
	GatewayID       string              `gorm:"size:64"`
	GatewayRefundID *string             `gorm:"size:64;index"`
	Amount          decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Status          domain.RefundStatus `gorm:"size:16;not null;index:idx_refunds_txnid_status"`
	Type            domain.RefundType   `gorm:"size:16;not null"`
	Reason          string
	RawRequest      datatypes.JSON
	RawResponse     datatypes.JSON
	RequestedAt     time.Time `gorm:"not null"`
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RefundModel) TableName() string { return "refunds" }
