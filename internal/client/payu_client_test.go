package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	"github.com/shopspring/decimal"
)

type capturedCall struct {
	form map[string]string
}

type fakeGateway struct {
	mu     sync.Mutex
	calls  []capturedCall
	status int
	body   string
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	g.mu.Lock()
	g.calls = append(g.calls, capturedCall{form: form})
	status, body := g.status, g.body
	g.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (g *fakeGateway) last(t *testing.T) map[string]string {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		t.Fatal("gateway received no calls")
	}
	return g.calls[len(g.calls)-1].form
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newTestClient(t *testing.T, gw *fakeGateway, rec CallRecorder) *PayUClient {
	t.Helper()
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	c, err := NewPayUClient(Config{
		Key:            "test_key",
		Salt:           "test_salt",
		PaymentURL:     "https://sandboxsecure.payu.in/_payment",
		APIURL:         srv.URL + "/merchant/postservice?form=2",
		ConnectTimeout: time.Second,
		RequestTimeout: 5 * time.Second,
		Recorder:       rec,
	})
	if err != nil {
		t.Fatalf("NewPayUClient: %v", err)
	}
	return c
}

func TestNewPayUClientRequiresCredentials(t *testing.T) {
	_, err := NewPayUClient(Config{Key: "k", APIURL: "https://x", PaymentURL: "https://y"})
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestVerifyPaymentSignsAndParses(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1,"msg":"1 out of 1 Transactions Fetched Successfully",
		"transaction_details":{"TEST123":{"mihpayid":403993715521937565,"txnid":"TEST123","amt":"100.00",
		"status":"success","unmappedstatus":"captured","mode":"CC","bank_ref_num":"BR1",
		"error_code":"E000","error_Message":"No Error"}}}`}
	c := newTestClient(t, gw, nil)

	res, err := c.VerifyPayment(context.Background(), "TEST123")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	form := gw.last(t)
	if form["key"] != "test_key" || form["command"] != CmdVerifyPayment || form["var1"] != "TEST123" {
		t.Errorf("unexpected form: %v", form)
	}
	if want := signature.Command("test_key", CmdVerifyPayment, "TEST123", "test_salt"); form["hash"] != want {
		t.Errorf("hash = %s, want %s", form["hash"], want)
	}
	if _, leaked := form["salt"]; leaked {
		t.Error("salt must never be transmitted")
	}

	if !res.OK() {
		t.Fatalf("expected OK result, got %s", res.Raw())
	}
	d, ok := res.TransactionDetails("TEST123")
	if !ok {
		t.Fatal("transaction details not found")
	}
	if d.GatewayID != "403993715521937565" {
		t.Errorf("numeric mihpayid must decode as text, got %q", d.GatewayID)
	}
	out := d.Outcome(res.Raw(), time.Now())
	if out.Status != domain.TransactionSuccess || out.PaymentMode != domain.ModeCreditCard || out.BankRef != "BR1" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestCheckPaymentSingleDetails(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1,"msg":"Transaction Fetched Successfully",
		"transaction_details":{"mihpayid":"999","txnid":"T9","status":"failure","unmappedstatus":"userCancelled"}}`}
	c := newTestClient(t, gw, nil)

	res, err := c.CheckPayment(context.Background(), "999")
	if err != nil {
		t.Fatalf("CheckPayment: %v", err)
	}
	d, ok := res.TransactionDetails("T9")
	if !ok {
		t.Fatal("single transaction details not found")
	}
	if got := d.Outcome(nil, time.Now()).Status; got != domain.TransactionCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
}

func TestTransportFailuresBecomeFailureResult(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		gw := &fakeGateway{status: http.StatusInternalServerError, body: "boom"}
		c := newTestClient(t, gw, nil)

		res, err := c.VerifyPayment(context.Background(), "TEST123")
		if err != nil {
			t.Fatalf("transport failures must not be Go errors: %v", err)
		}
		if res.Status() != 0 || !res.IsError() || res.OK() {
			t.Errorf("expected failure envelope, got %s", res.Raw())
		}
		if res.Message() != "HTTP Error: 500" {
			t.Errorf("message = %q", res.Message())
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := NewPayUClient(Config{Key: "k", Salt: "s", PaymentURL: "https://p", APIURL: url, ConnectTimeout: time.Second})
		if err != nil {
			t.Fatal(err)
		}
		res, err := c.CheckPayment(context.Background(), "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError() || res.Message() == "" {
			t.Errorf("expected failure envelope, got %s", res.Raw())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		gw := &fakeGateway{body: `{"status":1}`}
		c := newTestClient(t, gw, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, _ := c.VerifyPayment(ctx, "TEST123")
		if !res.IsError() {
			t.Errorf("expected failure envelope, got %s", res.Raw())
		}
	})
}

func TestEmptyAndMalformedBodies(t *testing.T) {
	for _, body := range []string{"", "   ", "<html>oops</html>", "[1,2,3]"} {
		gw := &fakeGateway{body: body}
		c := newTestClient(t, gw, nil)

		res, err := c.VerifyPayment(context.Background(), "TEST123")
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if !res.Empty() || res.OK() || res.IsError() {
			t.Errorf("body %q: expected empty result, got %s", body, res.Raw())
		}
		if string(res.Raw()) != "{}" {
			t.Errorf("body %q: raw = %s", body, res.Raw())
		}
	}
}

func TestInvalidParamsNeverReachGateway(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1}`}
	c := newTestClient(t, gw, nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"verify without ids": func() error { _, err := c.VerifyPayment(ctx); return err },
		"verify with pipe":   func() error { _, err := c.VerifyPayment(ctx, "a|b"); return err },
		"check empty":        func() error { _, err := c.CheckPayment(ctx, ""); return err },
		"reversed range": func() error {
			_, err := c.TransactionDetails(ctx, DateRange{From: time.Now(), To: time.Now().Add(-time.Hour)})
			return err
		},
		"short bin": func() error { _, err := c.CheckDomesticBIN(ctx, "123"); return err },
		"zero refund": func() error {
			_, err := c.CancelRefund(ctx, CancelRefundParams{GatewayID: "1", Token: "REF_1", Amount: decimal.Zero})
			return err
		},
		"vpa without handle": func() error { _, err := c.ValidateVPA(ctx, VPAParams{VPA: "nobody"}); return err },
		"invoice without email": func() error {
			_, err := c.CreateInvoice(ctx, InvoiceRequest{TxnID: "T", Amount: "10", ProductInfo: "p", FirstName: "f", Phone: "1"})
			return err
		},
		"checkout nil": func() error { _, err := c.CheckoutDetails(ctx, nil); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, domain.ErrInvalidParams) {
			t.Errorf("%s: expected ErrInvalidParams, got %v", name, err)
		}
	}
	if n := gw.count(); n != 0 {
		t.Errorf("gateway received %d calls for invalid params", n)
	}
}

func TestCommandVariables(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1,"msg":"ok"}`}
	c := newTestClient(t, gw, nil)
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		call    func() (Result, error)
		command string
		vars    map[string]string
	}{
		{"verify many", func() (Result, error) { return c.VerifyPayment(ctx, "A", "B") }, CmdVerifyPayment,
			map[string]string{"var1": "A|B"}},
		{"details by date", func() (Result, error) { return c.TransactionDetails(ctx, DateRange{From: from, To: to}) }, CmdTransactionDetails,
			map[string]string{"var1": "2025-06-01", "var2": "2025-06-02"}},
		{"info by time", func() (Result, error) { return c.TransactionInfo(ctx, DateRange{From: from, To: to}) }, CmdTransactionInfo,
			map[string]string{"var1": "2025-06-01 10:30:00", "var2": "2025-06-02 11:00:00"}},
		{"domestic bin", func() (Result, error) { return c.CheckDomesticBIN(ctx, "512345") }, CmdCheckDomestic,
			map[string]string{"var1": "512345"}},
		{"bin info", func() (Result, error) {
			return c.BinInfo(ctx, BinInfoParams{Type: "1", CardInfo: "512345", Index: "0", Offset: "10"})
		}, CmdBinInfo, map[string]string{"var1": "1", "var2": "512345", "var3": "0", "var4": "10", "var5": "0"}},
		{"cancel refund", func() (Result, error) {
			return c.CancelRefund(ctx, CancelRefundParams{GatewayID: "999", Token: "REF_1", Amount: decimal.NewFromInt(40)})
		}, CmdCancelRefund, map[string]string{"var1": "999", "var2": "REF_1", "var3": "40.00"}},
		{"refund status", func() (Result, error) { return c.RefundStatus(ctx, "R-77") }, CmdCheckActionStatus,
			map[string]string{"var1": "R-77"}},
		{"refund status by gateway id", func() (Result, error) { return c.RefundStatusByGatewayID(ctx, "999") }, CmdCheckActionStatus,
			map[string]string{"var1": "999", "var2": "payuid"}},
		{"all refunds", func() (Result, error) { return c.AllRefunds(ctx, "T1") }, CmdAllRefunds,
			map[string]string{"var1": "T1"}},
		{"netbanking default", func() (Result, error) { return c.NetbankingStatus(ctx, "") }, CmdNetbankingStatus,
			map[string]string{"var1": "default"}},
		{"issuing bank", func() (Result, error) { return c.IssuingBankStatus(ctx, "512345") }, CmdIssuingBankStatus,
			map[string]string{"var1": "512345"}},
		{"validate vpa", func() (Result, error) { return c.ValidateVPA(ctx, VPAParams{VPA: "john@upi", AutoPay: true}) }, CmdValidateVPA,
			map[string]string{"var1": "john@upi", "var2": "1"}},
		{"emi bins", func() (Result, error) {
			return c.EligibleEMIBins(ctx, EMIBinParams{Bin: "bin", CardNumber: "512345", BankName: "HDFC"})
		}, CmdEligibleBinsForEMI,
			map[string]string{"var1": "bin", "var2": "512345", "var3": "HDFC"}},
		{"emi amount", func() (Result, error) { return c.EMIAmount(ctx, decimal.RequireFromString("10000")) }, CmdEMIAmount,
			map[string]string{"var1": "10000.00"}},
		{"expire invoice", func() (Result, error) { return c.ExpireInvoice(ctx, "INV1") }, CmdExpireInvoice,
			map[string]string{"var1": "INV1"}},
		{"settlement by day", func() (Result, error) { return c.SettlementDetailsForDay(ctx, from) }, CmdSettlementDetails,
			map[string]string{"var1": "2025-06-01"}},
		{"checkout details", func() (Result, error) { return c.CheckoutDetails(ctx, map[string]string{"requestId": "X"}) }, CmdCheckoutDetails,
			map[string]string{"var1": `{"requestId":"X"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.OK() {
				t.Fatalf("expected OK, got %s", res.Raw())
			}
			form := gw.last(t)
			if form["command"] != tt.command {
				t.Errorf("command = %q, want %q", form["command"], tt.command)
			}
			for k, v := range tt.vars {
				if form[k] != v {
					t.Errorf("%s = %q, want %q", k, form[k], v)
				}
			}
			if want := signature.Command("test_key", tt.command, tt.vars["var1"], "test_salt"); form["hash"] != want {
				t.Errorf("hash does not sign var1")
			}
		})
	}
}

func TestTrailingEmptyVarsAreDropped(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1}`}
	c := newTestClient(t, gw, nil)

	if _, err := c.ValidateVPA(context.Background(), VPAParams{VPA: "john@upi"}); err != nil {
		t.Fatal(err)
	}
	if _, sent := gw.last(t)["var2"]; sent {
		t.Error("empty trailing var2 must not be sent")
	}
}

func TestCreateInvoiceSendsJSON(t *testing.T) {
	gw := &fakeGateway{body: `{"status":1,"URL":"https://pay.example/inv"}`}
	c := newTestClient(t, gw, nil)

	res, err := c.CreateInvoice(context.Background(), InvoiceRequest{
		TxnID: "INV1", Amount: "10.00", ProductInfo: "Book", FirstName: "John",
		Email: "john@example.com", Phone: "9999999999", SendEmailNow: "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"txnid":"INV1","amount":"10.00","productinfo":"Book","firstname":"John","email":"john@example.com","phone":"9999999999","send_email_now":"1"}`
	if got := gw.last(t)["var1"]; got != want {
		t.Errorf("var1 = %s\nwant %s", got, want)
	}
	if res.String("URL") != "https://pay.example/inv" {
		t.Errorf("URL = %q", res.String("URL"))
	}
}

func TestRecorderSeesEveryCall(t *testing.T) {
	var (
		mu      sync.Mutex
		records []CallRecord
	)
	rec := RecorderFunc(func(_ context.Context, r CallRecord) {
		mu.Lock()
		records = append(records, r)
		mu.Unlock()
	})
	gw := &fakeGateway{status: http.StatusBadGateway}
	c := newTestClient(t, gw, Recorders(nil, rec))

	c.RefundStatus(context.Background(), "R-1")

	mu.Lock()
	defer mu.Unlock()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Command != CmdCheckActionStatus || r.Var1 != "R-1" || r.OK || r.HTTPStatus != http.StatusBadGateway {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestRefundParsing(t *testing.T) {
	ack := ParseResult([]byte(`{"status":1,"msg":"Refund Request Queued","request_id":"130549","bank_ref_num":null,"mihpayid":403993715521937565,"error_code":102}`)).RefundAck()
	if ack.RequestID != "130549" || ack.GatewayID != "403993715521937565" || ack.ErrorCode != "102" {
		t.Errorf("unexpected ack: %+v", ack)
	}

	status := ParseResult([]byte(`{"status":1,"msg":"1 out of 1 Transactions Fetched Successfully",
		"transaction_details":{"130549":{"130549":{"mihpayid":"403993715521937565","request_id":"130549",
		"amt":"40.00","action":"refund","status":"success","token":"REF_1"}}}}`))
	actions := status.RefundActions()
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].RefundStatus() != domain.RefundSuccess || actions[0].Token != "REF_1" {
		t.Errorf("unexpected action: %+v", actions[0])
	}

	queued := ParseResult([]byte(`{"status":1,"transaction_details":{"9":{"9":{"request_id":"9","status":"queued"}}}}`))
	if got := queued.RefundActions()[0].RefundStatus(); got != domain.RefundProcessing {
		t.Errorf("queued maps to %s, want processing", got)
	}
}

func TestOutcomeFromValues(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := OutcomeFromValues(map[string]string{
		"status":         "failure",
		"unmappedstatus": "userCancelled",
		"mihpayid":       "777",
		"mode":           "UPI",
		"error":          "E1605",
		"error_Message":  "Transaction cancelled by user",
		"hash":           "abc",
	}, nil, at)

	if out.Status != domain.TransactionCancelled || out.GatewayID != "777" || out.PaymentMode != domain.ModeUPI {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if out.ErrorCode != "E1605" || out.Signature != "abc" || !out.CompletedAt.Equal(at) {
		t.Errorf("unexpected outcome: %+v", out)
	}
}
