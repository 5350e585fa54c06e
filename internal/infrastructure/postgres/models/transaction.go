package models

import (
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionModel struct {
	ID           string          `gorm:"primaryKey;type:uuid"`
	TxnID        string          `gorm:"column:txnid;size:64;not null;uniqueIndex"`
	GatewayID    *string         `gorm:"size:64;index"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ProductInfo  string          `gorm:"column:productinfo;not null"`
	FirstName    string          `gorm:"column:firstname;not null"`
	LastName     string          `gorm:"column:lastname"`
	Email        string          `gorm:"not null;index"`
	Phone        string          `gorm:"size:32;not null"`
	Address1     string          `gorm:"column:address1"`
	Address2     string          `gorm:"column:address2"`
	City         string
	State        string
	Country      string
	Zipcode      string
	UDF1         string                   `gorm:"column:udf1"`
	UDF2         string                   `gorm:"column:udf2"`
	UDF3         string                   `gorm:"column:udf3"`
	UDF4         string                   `gorm:"column:udf4"`
	UDF5         string                   `gorm:"column:udf5"`
	Status       domain.TransactionStatus `gorm:"size:16;not null;index:idx_transactions_status_initiated"`
	PaymentMode  domain.PaymentMode       `gorm:"size:16;index"`
	BankRef      string                   `gorm:"column:bank_ref"`
	ErrorCode    string
	ErrorMessage string
	Signature    string `gorm:"size:128"`
	RawRequest   datatypes.JSON
	RawResponse  datatypes.JSON
	InitiatedAt  time.Time `gorm:"not null;index:idx_transactions_status_initiated"`
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TransactionModel) TableName() string { return "transactions" }
