// Package views holds the JSON shapes shared by the HTTP and gRPC
// transports. Amounts are always rendered with two fraction digits.
package views

import (
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
)

type TransactionView struct {
	TxnID        string     `json:"txnid"`
	GatewayID    string     `json:"gateway_id,omitempty"`
	Amount       string     `json:"amount"`
	ProductInfo  string     `json:"productinfo"`
	FirstName    string     `json:"firstname"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Status       string     `json:"status"`
	PaymentMode  string     `json:"payment_mode,omitempty"`
	BankRef      string     `json:"bank_ref_num,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	InitiatedAt  time.Time  `json:"initiated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func Transaction(tx *domain.Transaction) TransactionView {
	return TransactionView{
		TxnID:        tx.TxnID,
		GatewayID:    tx.GatewayID,
		Amount:       domain.FormatAmount(tx.Amount),
		ProductInfo:  tx.ProductInfo,
		FirstName:    tx.Payer.FirstName,
		Email:        tx.Payer.Email,
		Phone:        tx.Payer.Phone,
		Status:       string(tx.Status),
		PaymentMode:  string(tx.PaymentMode),
		BankRef:      tx.BankRef,
		ErrorCode:    tx.ErrorCode,
		ErrorMessage: tx.ErrorMessage,
		InitiatedAt:  tx.InitiatedAt,
		CompletedAt:  tx.CompletedAt,
	}
}

func Transactions(txs []*domain.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, Transaction(tx))
	}
	return out
}

type RefundView struct {
	RefundID        string     `json:"refund_id"`
	TxnID           string     `json:"txnid"`
	GatewayRefundID string     `json:"gateway_refund_id,omitempty"`
	Amount          string     `json:"amount"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	Reason          string     `json:"reason,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

func Refund(r *domain.Refund) RefundView {
	return RefundView{
		RefundID:        r.RefundID,
		TxnID:           r.TxnID,
		GatewayRefundID: r.GatewayRefundID,
		Amount:          domain.FormatAmount(r.Amount),
		Status:          string(r.Status),
		Type:            string(r.Type),
		Reason:          r.Reason,
		RequestedAt:     r.RequestedAt,
		ProcessedAt:     r.ProcessedAt,
	}
}

func Refunds(rs []*domain.Refund) []RefundView {
	out := make([]RefundView, 0, len(rs))
	for _, r := range rs {
		out = append(out, Refund(r))
	}
	return out
}

type RefundSummaryView struct {
	TxnID      string       `json:"txnid"`
	Amount     string       `json:"amount"`
	Refunded   string       `json:"refunded"`
	Remaining  string       `json:"remaining_refundable"`
	Available  string       `json:"available"`
	Refundable bool         `json:"refundable"`
	Refunds    []RefundView `json:"refunds"`
}

func RefundSummary(s *refunddto.RefundSummary) RefundSummaryView {
	return RefundSummaryView{
		TxnID:      s.Transaction.TxnID,
		Amount:     domain.FormatAmount(s.Transaction.Amount),
		Refunded:   domain.FormatAmount(s.Refunded),
		Remaining:  domain.FormatAmount(s.Remaining),
		Available:  domain.FormatAmount(s.Available),
		Refundable: s.Refundable,
		Refunds:    Refunds(s.Refunds),
	}
}

type WebhookView struct {
	WebhookID       string          `json:"webhook_id"`
	TxnID           string          `json:"txnid,omitempty"`
	EventType       string          `json:"event_type"`
	Status          string          `json:"status"`
	Verified        bool            `json:"verified"`
	ProcessingError string          `json:"processing_error,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	ReceivedAt      time.Time       `json:"received_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

func Webhook(ev *domain.WebhookEvent) WebhookView {
	return WebhookView{
		WebhookID:       ev.WebhookID,
		TxnID:           ev.TxnID,
		EventType:       string(ev.EventType),
		Status:          string(ev.Status),
		Verified:        ev.Verified,
		ProcessingError: ev.ProcessingError,
		Payload:         ev.Payload,
		ReceivedAt:      ev.ReceivedAt,
		ProcessedAt:     ev.ProcessedAt,
	}
}

func Webhooks(evs []*domain.WebhookEvent) []WebhookView {
	out := make([]WebhookView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, Webhook(ev))
	}
	return out
}
