package refund

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/domain/domaintest"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const gatewayID = "403993715521937565"

type fixture struct {
	store     *domaintest.Store
	gateway   *domaintest.FakeGateway
	publisher *domaintest.RecordingPublisher
	uc        *DefaultRefundUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     domaintest.NewStore(),
		gateway:   &domaintest.FakeGateway{},
		publisher: &domaintest.RecordingPublisher{},
	}
	f.uc = NewDefaultRefundUsecase(
		f.store.Transactions(),
		f.store.Refunds(),
		f.gateway,
		f.publisher,
		metrics.NewPaymentMetrics(prometheus.NewRegistry()),
	)
	return f
}

func (f *fixture) seed(t *testing.T, txnID string, status domain.TransactionStatus) {
	t.Helper()
	err := f.store.Transactions().Create(context.Background(), &domain.Transaction{
		TxnID:       txnID,
		GatewayID:   gatewayID,
		Amount:      decimal.RequireFromString("100.00"),
		ProductInfo: "Test Product",
		Payer:       domain.Payer{FirstName: "John", Email: "john@example.com"},
		Status:      status,
		InitiatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) acceptRefunds() {
	f.gateway.CancelRefundFunc = func(_ context.Context, p client.CancelRefundParams) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":1,"msg":"Refund Request Queued","request_id":"RQ-` + p.Token + `",
			"bank_ref_num":null,"mihpayid":403993715521937565,"error_code":102}`)), nil
	}
}

func request(amount string) *refunddto.RequestRefundInput {
	return &refunddto.RequestRefundInput{TxnID: "T1", Amount: amount, Reason: "customer request"}
}

func TestRequestRefundAccepted(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)

	var sent client.CancelRefundParams
	f.gateway.CancelRefundFunc = func(_ context.Context, p client.CancelRefundParams) (client.Result, error) {
		sent = p
		return client.ParseResult([]byte(`{"status":1,"msg":"Refund Request Queued","request_id":"131421","mihpayid":403993715521937565}`)), nil
	}

	out, err := f.uc.RequestRefund(context.Background(), request("40"))
	if err != nil {
		t.Fatalf("RequestRefund: %v", err)
	}
	r := out.Refund
	if r.Status != domain.RefundProcessing || r.GatewayRefundID != "131421" || r.Type != domain.RefundTypeRefund {
		t.Errorf("unexpected refund: %+v", r)
	}
	if sent.GatewayID != gatewayID || sent.Token != r.RefundID || !sent.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("unexpected gateway params: %+v", sent)
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0].Kind != domain.KindRefund || events[0].Status != "processing" || events[0].Amount != "40.00" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestRequestRefundCap(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	f.acceptRefunds()
	ctx := context.Background()

	if _, err := f.uc.RequestRefund(ctx, request("40")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.RequestRefund(ctx, request("70")); !errors.Is(err, domain.ErrOverRefund) {
		t.Fatalf("expected ErrOverRefund, got %v", err)
	}
	if _, err := f.uc.RequestRefund(ctx, request("60")); err != nil {
		t.Fatalf("refund up to the cap must pass: %v", err)
	}
	if _, err := f.uc.RequestRefund(ctx, request("0.01")); !errors.Is(err, domain.ErrOverRefund) {
		t.Fatalf("expected ErrOverRefund, got %v", err)
	}

	refunds, err := f.uc.ListRefunds(ctx, "T1")
	if err != nil {
		t.Fatal(err)
	}
	if len(refunds) != 2 {
		t.Errorf("rejected refunds must not be persisted, got %d", len(refunds))
	}
	if n := len(f.gateway.Calls()); n != 2 {
		t.Errorf("gateway must only be called for accepted reservations, got %d calls", n)
	}
}

func TestRequestRefundRejected(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TransactionStatus
		input  *refunddto.RequestRefundInput
		want   error
	}{
		{"pending transaction", domain.TransactionPending, request("10"), domain.ErrNotRefundable},
		{"failed transaction", domain.TransactionFailure, request("10"), domain.ErrNotRefundable},
		{"unknown transaction", domain.TransactionSuccess, &refunddto.RequestRefundInput{TxnID: "NOPE", Amount: "10"}, domain.ErrTransactionNotFound},
		{"bad type", domain.TransactionSuccess, &refunddto.RequestRefundInput{TxnID: "T1", Amount: "10", Type: "gift"}, domain.ErrInvalidParams},
		{"bad amount", domain.TransactionSuccess, request("-5"), domain.ErrInvalidAmount},
		{"over amount", domain.TransactionSuccess, request("100.01"), domain.ErrOverRefund},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "T1", tt.status)
			f.acceptRefunds()
			if _, err := f.uc.RequestRefund(context.Background(), tt.input); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRequestRefundIndeterminateKeepsReservation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()

	out, err := f.uc.RequestRefund(ctx, request("40"))
	if err != nil {
		t.Fatalf("transport failures must not surface as errors: %v", err)
	}
	if out.Refund.Status != domain.RefundPending || !out.Gateway.IsError() {
		t.Errorf("unexpected refund: %+v", out.Refund)
	}

	summary, err := f.uc.GetRefundSummary(ctx, "T1")
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Available.Equal(decimal.NewFromInt(60)) || !summary.Remaining.Equal(decimal.NewFromInt(100)) {
		t.Errorf("available=%s remaining=%s", summary.Available, summary.Remaining)
	}
}

func TestRequestRefundDeclinedReleasesReservation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()
	f.gateway.CancelRefundFunc = func(context.Context, client.CancelRefundParams) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":0,"msg":"Refund not allowed for this transaction"}`)), nil
	}

	out, err := f.uc.RequestRefund(ctx, request("100"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Refund.Status != domain.RefundFailed || out.Refund.ProcessedAt == nil {
		t.Errorf("unexpected refund: %+v", out.Refund)
	}

	summary, err := f.uc.GetRefundSummary(ctx, "T1")
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Available.Equal(decimal.NewFromInt(100)) || !summary.Refundable {
		t.Errorf("declined refund must release its reservation: %+v", summary)
	}
}

func TestPollRefunds(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()

	f.acceptRefunds()
	acked, err := f.uc.RequestRefund(ctx, request("40"))
	if err != nil {
		t.Fatal(err)
	}
	f.gateway.CancelRefundFunc = nil
	lost, err := f.uc.RequestRefund(ctx, request("10"))
	if err != nil {
		t.Fatal(err)
	}

	ackedID := acked.Refund.GatewayRefundID
	f.gateway.RefundStatusFunc = func(_ context.Context, requestID string) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":1,"msg":"1 out of 1 Transactions Fetched Successfully",
			"transaction_details":{"` + requestID + `":{"` + requestID + `":{"mihpayid":"403993715521937565",
			"amt":"40.00","action":"refund","status":"SUCCESS","request_id":"` + requestID + `","bank_ref_num":"BR1"}}}}`)), nil
	}
	f.gateway.RefundStatusByGatewayIDFunc = func(context.Context, string) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":1,"transaction_details":{"` + gatewayID + `":[
			{"request_id":"` + ackedID + `","token":"` + acked.Refund.RefundID + `","amt":"40.00","status":"success"},
			{"request_id":"131999","token":"` + lost.Refund.RefundID + `","amt":"10.00","status":"queued"}]}}`)), nil
	}

	checked, updated, err := f.uc.PollRefunds(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if checked != 2 || updated != 2 {
		t.Errorf("checked=%d updated=%d, want 2/2", checked, updated)
	}

	r, _ := f.uc.GetRefund(ctx, acked.Refund.RefundID)
	if r.Status != domain.RefundSuccess {
		t.Errorf("acknowledged refund status = %s, want success", r.Status)
	}
	r, _ = f.uc.GetRefund(ctx, lost.Refund.RefundID)
	if r.Status != domain.RefundProcessing || r.GatewayRefundID != "131999" {
		t.Errorf("unacknowledged refund must be matched by token: %+v", r)
	}
	if found, err := f.uc.ResolveRefund(ctx, "131999", ""); err != nil || found.RefundID != lost.Refund.RefundID {
		t.Errorf("ResolveRefund by request id: %v %+v", err, found)
	}

	summary, _ := f.uc.GetRefundSummary(ctx, "T1")
	if !summary.Refunded.Equal(decimal.NewFromInt(40)) || !summary.Remaining.Equal(decimal.NewFromInt(60)) {
		t.Errorf("refunded=%s remaining=%s", summary.Refunded, summary.Remaining)
	}
}

func TestPollRefundsLeavesStateOnGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	f.acceptRefunds()
	ctx := context.Background()
	out, err := f.uc.RequestRefund(ctx, request("40"))
	if err != nil {
		t.Fatal(err)
	}
	writes := f.store.WriteCount()

	checked, updated, err := f.uc.PollRefunds(ctx, 10)
	if err != nil || checked != 1 || updated != 0 {
		t.Errorf("checked=%d updated=%d err=%v", checked, updated, err)
	}
	if f.store.WriteCount() != writes {
		t.Error("a failed status call must not write")
	}
	r, _ := f.uc.GetRefund(ctx, out.Refund.RefundID)
	if r.Status != domain.RefundProcessing {
		t.Errorf("status = %s, want processing", r.Status)
	}
}

func TestApplyRefundUpdateForwardOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	f.acceptRefunds()
	ctx := context.Background()
	out, err := f.uc.RequestRefund(ctx, request("40"))
	if err != nil {
		t.Fatal(err)
	}
	id := out.Refund.RefundID

	if _, changed, err := f.uc.ApplyRefundUpdate(ctx, id, domain.RefundUpdate{Status: domain.RefundSuccess}, domain.SourceWebhook); err != nil || !changed {
		t.Fatalf("processing -> success: changed=%v err=%v", changed, err)
	}
	if _, changed, err := f.uc.ApplyRefundUpdate(ctx, id, domain.RefundUpdate{Status: domain.RefundSuccess}, domain.SourceWebhook); err != nil || changed {
		t.Errorf("repeat success must be a no-op: changed=%v err=%v", changed, err)
	}
	if _, _, err := f.uc.ApplyRefundUpdate(ctx, id, domain.RefundUpdate{Status: domain.RefundFailed}, domain.SourceWebhook); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, _, err := f.uc.ApplyRefundUpdate(ctx, id, domain.RefundUpdate{Status: "lost"}, domain.SourceWebhook); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, _, err := f.uc.ApplyRefundUpdate(ctx, "REF_missing", domain.RefundUpdate{Status: domain.RefundSuccess}, domain.SourceWebhook); !errors.Is(err, domain.ErrRefundNotFound) {
		t.Errorf("expected ErrRefundNotFound, got %v", err)
	}
}

func TestPollRefundsCancelsRefundUnknownToGateway(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()

	// Transport failure: no acknowledgement, the refund stays pending.
	out, err := f.uc.RequestRefund(ctx, request("100.00"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Refund.Status != domain.RefundPending {
		t.Fatalf("status = %s, want pending", out.Refund.Status)
	}
	f.gateway.RefundStatusByGatewayIDFunc = func(context.Context, string) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":1,"transaction_details":{"` + gatewayID + `":[]}}`)), nil
	}

	for i := 0; i < 5; i++ {
		if _, updated, err := f.uc.PollRefunds(ctx, 10); err != nil || updated != 0 {
			t.Fatalf("poll within the grace period: updated=%d err=%v", updated, err)
		}
	}
	if _, err := f.uc.RequestRefund(ctx, request("1.00")); !errors.Is(err, domain.ErrOverRefund) {
		t.Fatalf("pending refund must keep its reservation, got %v", err)
	}

	later := time.Now().UTC().Add(DefaultLostAfter + time.Hour)
	f.uc.now = func() time.Time { return later }
	checked, updated, err := f.uc.PollRefunds(ctx, 10)
	if err != nil || checked != 1 || updated != 1 {
		t.Fatalf("checked=%d updated=%d err=%v", checked, updated, err)
	}
	r, _ := f.uc.GetRefund(ctx, out.Refund.RefundID)
	if r.Status != domain.RefundCancelled || r.ProcessedAt == nil {
		t.Errorf("unexpected refund: %+v", r)
	}

	f.acceptRefunds()
	if _, err := f.uc.RequestRefund(ctx, request("1.00")); err != nil {
		t.Errorf("cancelled refund must release its reservation: %v", err)
	}
}

func TestPollRefundsKeepsUnknownRefundWhenGatewayFails(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()
	out, err := f.uc.RequestRefund(ctx, request("10"))
	if err != nil {
		t.Fatal(err)
	}

	// The status call itself fails, so absence proves nothing.
	f.uc.now = func() time.Time { return time.Now().UTC().Add(2 * DefaultLostAfter) }
	if _, updated, err := f.uc.PollRefunds(ctx, 10); err != nil || updated != 0 {
		t.Fatalf("updated=%d err=%v", updated, err)
	}
	if r, _ := f.uc.GetRefund(ctx, out.Refund.RefundID); r.Status != domain.RefundPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
}

func TestPollRefundsLostAfterDisabled(t *testing.T) {
	f := newFixture(t)
	f.uc = NewDefaultRefundUsecase(f.store.Transactions(), f.store.Refunds(), f.gateway, f.publisher,
		metrics.NewPaymentMetrics(prometheus.NewRegistry()), WithLostAfter(0))
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()
	out, err := f.uc.RequestRefund(ctx, request("10"))
	if err != nil {
		t.Fatal(err)
	}
	f.gateway.RefundStatusByGatewayIDFunc = func(context.Context, string) (client.Result, error) {
		return client.ParseResult([]byte(`{"status":1,"transaction_details":{"` + gatewayID + `":[]}}`)), nil
	}
	f.uc.now = func() time.Time { return time.Now().UTC().Add(30 * 24 * time.Hour) }
	if _, updated, _ := f.uc.PollRefunds(ctx, 10); updated != 0 {
		t.Errorf("updated = %d, want 0", updated)
	}
	if r, _ := f.uc.GetRefund(ctx, out.Refund.RefundID); r.Status != domain.RefundPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
}

func TestCancelRefund(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "T1", domain.TransactionSuccess)
	ctx := context.Background()

	stuck, err := f.uc.RequestRefund(ctx, request("100.00"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := f.uc.CancelRefund(ctx, stuck.Refund.RefundID, "gateway has no record")
	if err != nil {
		t.Fatalf("CancelRefund: %v", err)
	}
	if r.Status != domain.RefundCancelled {
		t.Errorf("status = %s, want cancelled", r.Status)
	}
	events := f.publisher.Events()
	if last := events[len(events)-1]; last.Status != "cancelled" || last.Source != domain.SourceOperator {
		t.Errorf("unexpected event: %+v", last)
	}
	if again, err := f.uc.CancelRefund(ctx, stuck.Refund.RefundID, ""); err != nil || again.Status != domain.RefundCancelled {
		t.Errorf("repeat cancel: %v %+v", err, again)
	}

	f.acceptRefunds()
	acked, err := f.uc.RequestRefund(ctx, request("40"))
	if err != nil {
		t.Fatalf("reservation not released: %v", err)
	}
	if _, err := f.uc.CancelRefund(ctx, acked.Refund.RefundID, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("acknowledged refund: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.uc.CancelRefund(ctx, "REF_missing", ""); !errors.Is(err, domain.ErrRefundNotFound) {
		t.Errorf("expected ErrRefundNotFound, got %v", err)
	}
}
