package refunddto

import (
	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
)

type RequestRefundOutput struct {
	Refund  *domain.Refund
	Gateway client.Result
}

// RefundSummary describes how much of a transaction has been given back.
// Remaining counts settled refunds only; Available also subtracts refunds
// still in flight and is what the next request is checked against.
type RefundSummary struct {
	Transaction *domain.Transaction
	Refunds     []*domain.Refund
	Refunded    decimal.Decimal
	Remaining   decimal.Decimal
	Available   decimal.Decimal
	Refundable  bool
}
