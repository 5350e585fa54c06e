package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundSuccess    RefundStatus = "success"
	RefundFailed     RefundStatus = "failed"
	RefundCancelled  RefundStatus = "cancelled"
)

func (s RefundStatus) IsTerminal() bool {
	switch s {
	case RefundSuccess, RefundFailed, RefundCancelled:
		return true
	}
	return false
}

// Reserves reports whether a refund in this status holds part of the
// transaction amount. In-flight refunds count so that two concurrent
// requests cannot both pass the cap.
func (s RefundStatus) Reserves() bool {
	return s == RefundPending || s == RefundProcessing || s == RefundSuccess
}

// ResolveRefundTransition mirrors ResolveTransactionTransition for refunds:
// pending -> processing -> terminal, pending -> terminal directly, repeats
// of the current status are no-ops.
func ResolveRefundTransition(current, next RefundStatus) (apply bool, err error) {
	if current == next {
		return false, nil
	}
	switch current {
	case RefundPending:
		if next == RefundProcessing || next.IsTerminal() {
			return true, nil
		}
	case RefundProcessing:
		if next.IsTerminal() {
			return true, nil
		}
	}
	return false, ErrInvalidTransition
}

type RefundType string

const (
	RefundTypeRefund     RefundType = "refund"
	RefundTypeCancel     RefundType = "cancel"
	RefundTypeChargeback RefundType = "chargeback"
)

func (t RefundType) Valid() bool {
	return t == RefundTypeRefund || t == RefundTypeCancel || t == RefundTypeChargeback
}

type Refund struct {
	RefundID        string
	TxnID           string
	GatewayID       string
	GatewayRefundID string
	Amount          decimal.Decimal
	Status          RefundStatus
	Type            RefundType
	Reason          string
	RawRequest      json.RawMessage
	RawResponse     json.RawMessage
	RequestedAt     time.Time
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type RefundUpdate struct {
	Status          RefundStatus
	GatewayRefundID string
	RawResponse     json.RawMessage
	At              time.Time
	// From, when set, is the only status the update may start from.
	From RefundStatus
}

// ResolveRefundUpdate is ResolveRefundTransition plus the From condition.
func ResolveRefundUpdate(current RefundStatus, u RefundUpdate) (apply bool, err error) {
	if u.From != "" && current != u.From && current != u.Status {
		return false, ErrInvalidTransition
	}
	return ResolveRefundTransition(current, u.Status)
}

// ParseGatewayRefundStatus maps the status of a gateway refund action.
// Queued and requested refunds are still processing.
func ParseGatewayRefundStatus(status string) RefundStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "successful", "completed":
		return RefundSuccess
	case "failure", "failed":
		return RefundFailed
	case "cancelled", "canceled":
		return RefundCancelled
	case "queued", "requested", "pending", "processing", "in progress":
		return RefundProcessing
	}
	return ""
}
