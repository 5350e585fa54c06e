package mappers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
)

func TestTransactionMapping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		TxnID:       "T1",
		Amount:      decimal.RequireFromString("100.00"),
		ProductInfo: "Book",
		Payer:       domain.Payer{FirstName: "John", Email: "john@example.com", Phone: "999"},
		UDF:         [5]string{"a", "", "", "", "e"},
		Status:      domain.TransactionPending,
		RawRequest:  json.RawMessage(`{"txnid":"T1"}`),
		InitiatedAt: now,
	}

	model := ToGORMTransaction(tx)
	if model.GatewayID != nil {
		t.Error("missing gateway id must map to NULL")
	}
	if model.RawResponse != nil {
		t.Error("missing raw response must map to NULL")
	}
	if model.UDF1 != "a" || model.UDF5 != "e" {
		t.Errorf("udf mapping broken: %q %q", model.UDF1, model.UDF5)
	}

	back := ToDomainTransaction(model)
	if back.TxnID != "T1" || !back.Amount.Equal(tx.Amount) || back.UDF != tx.UDF || back.Payer != tx.Payer {
		t.Errorf("round trip lost data: %+v", back)
	}
	if back.GatewayID != "" || string(back.RawRequest) != `{"txnid":"T1"}` {
		t.Errorf("unexpected optional fields: %+v", back)
	}
}

func TestWebhookMappingKeepsNullTxnID(t *testing.T) {
	ev := &domain.WebhookEvent{WebhookID: "WH_1", EventType: domain.EventSettlement, Status: domain.WebhookReceived}
	model := ToGORMWebhookEvent(ev)
	if model.TxnID != nil {
		t.Error("events without txnid must store NULL")
	}
	if got := ToDomainWebhookEvent(model); got.TxnID != "" || got.WebhookID != "WH_1" {
		t.Errorf("unexpected mapping: %+v", got)
	}
}

func TestRefundMapping(t *testing.T) {
	r := &domain.Refund{RefundID: "REF_1", TxnID: "T1", Amount: decimal.NewFromInt(40), Status: domain.RefundPending, Type: domain.RefundTypeRefund}
	model := ToGORMRefund(r)
	if model.GatewayRefundID != nil {
		t.Error("unacknowledged refund must have NULL gateway refund id")
	}
	if back := ToDomainRefund(model); back.RefundID != "REF_1" || !back.Amount.Equal(r.Amount) {
		t.Errorf("round trip lost data: %+v", back)
	}
}
