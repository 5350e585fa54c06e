package grpcapi

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain/domaintest"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// commandLog records the gateway commands the httptest gateway receives.
type commandLog struct {
	mu       sync.Mutex
	commands []string
	vars     []string
}

func (l *commandLog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	l.mu.Lock()
	l.commands = append(l.commands, r.PostForm.Get("command"))
	l.vars = append(l.vars, r.PostForm.Get("var1"))
	l.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":1,"msg":"ok","bankCode":"HDFB","up_status":1}`))
}

func (l *commandLog) last() (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.commands) == 0 {
		return "", ""
	}
	return l.commands[len(l.commands)-1], l.vars[len(l.vars)-1]
}

type fixture struct {
	client  *PaymentServiceClient
	health  healthpb.HealthClient
	gateway *commandLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &commandLog{}
	gw := httptest.NewServer(log)
	t.Cleanup(gw.Close)

	payu, err := client.NewPayUClient(client.Config{
		Key:            "test_key",
		Salt:           "test_salt",
		PaymentURL:     "https://sandboxsecure.payu.in/_payment",
		APIURL:         gw.URL + "/merchant/postservice?form=2",
		ConnectTimeout: time.Second,
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewPayUClient: %v", err)
	}

	store := domaintest.NewStore()
	fake := &domaintest.FakeGateway{}
	signer := signature.NewSigner("test_key", "test_salt")
	m := metrics.NewPaymentMetrics(prometheus.NewRegistry())
	pub := &domaintest.RecordingPublisher{}
	payments := payment.NewDefaultPaymentUsecase(store.Transactions(), fake, signer, pub, m, payment.Options{
		SuccessURL: "https://shop.example/success",
		FailureURL: "https://shop.example/failure",
	})
	refunds := refund.NewDefaultRefundUsecase(store.Transactions(), store.Refunds(), fake, pub, m)
	webhooks := webhook.NewDefaultWebhookUsecase(store.Webhooks(), payments, refunds, signer, m)

	srv, _ := NewServer(NewPaymentHandler(payments, refunds, webhooks, payu))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{
		client:  NewPaymentServiceClient(conn),
		health:  healthpb.NewHealthClient(conn),
		gateway: log,
	}
}

func (f *fixture) call(t *testing.T, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.client.Call(ctx, method, req)
}

func nested(s *structpb.Struct, key string) *structpb.Struct {
	return s.GetFields()[key].GetStructValue()
}

func TestPaymentLifecycleOverGRPC(t *testing.T) {
	f := newFixture(t)

	out, err := f.call(t, "InitiatePayment", map[string]any{
		"txnid":       "G1",
		"amount":      100,
		"productinfo": "Test Product",
		"firstname":   "John",
		"email":       "john@example.com",
		"phone":       "9999999999",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	tx := nested(out, "transaction")
	if got := tx.GetFields()["amount"].GetStringValue(); got != "100.00" {
		t.Fatalf("amount = %q, want 100.00", got)
	}
	if got := tx.GetFields()["status"].GetStringValue(); got != "pending" {
		t.Fatalf("status = %q, want pending", got)
	}
	if url := nested(out, "checkout").GetFields()["url"].GetStringValue(); url != "https://sandboxsecure.payu.in/_payment" {
		t.Fatalf("checkout url = %q", url)
	}

	got, err := f.call(t, "GetTransaction", map[string]any{"txnid": "G1"})
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.GetFields()["txnid"].GetStringValue() != "G1" {
		t.Fatalf("unexpected transaction: %v", got)
	}

	list, err := f.call(t, "ListTransactions", map[string]any{"status": "pending"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if n := len(list.GetFields()["transactions"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("listed %d transactions, want 1", n)
	}
}

func TestErrorCodes(t *testing.T) {
	f := newFixture(t)
	initiate := map[string]any{
		"txnid":       "G2",
		"amount":      "50.00",
		"productinfo": "Test Product",
		"firstname":   "John",
		"email":       "john@example.com",
		"phone":       "9999999999",
	}
	if _, err := f.call(t, "InitiatePayment", initiate); err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	cases := []struct {
		name   string
		method string
		in     map[string]any
		want   codes.Code
	}{
		{"duplicate txnid", "InitiatePayment", initiate, codes.AlreadyExists},
		{"missing txnid", "GetTransaction", map[string]any{}, codes.InvalidArgument},
		{"unknown txnid", "GetTransaction", map[string]any{"txnid": "nope"}, codes.NotFound},
		{"refund pending payment", "RequestRefund", map[string]any{"txnid": "G2", "amount": "10.00"}, codes.FailedPrecondition},
		{"bad amount", "RequestRefund", map[string]any{"txnid": "G2", "amount": "-1"}, codes.InvalidArgument},
		{"bad time", "ListTransactions", map[string]any{"from": "yesterday"}, codes.InvalidArgument},
		{"unknown webhook", "ReprocessWebhook", map[string]any{"webhook_id": "WH_missing"}, codes.NotFound},
		{"cancel without refund id", "CancelRefund", map[string]any{}, codes.InvalidArgument},
		{"cancel unknown refund", "CancelRefund", map[string]any{"refund_id": "REF_missing"}, codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.call(t, tc.method, tc.in)
			if status.Code(err) != tc.want {
				t.Fatalf("code = %v, want %v (err %v)", status.Code(err), tc.want, err)
			}
		})
	}
}

func TestGatewayQuery(t *testing.T) {
	f := newFixture(t)

	out, err := f.call(t, "GatewayQuery", map[string]any{
		"command":   client.CmdNetbankingStatus,
		"bank_code": "HDFB",
	})
	if err != nil {
		t.Fatalf("GatewayQuery: %v", err)
	}
	if out.GetFields()["command"].GetStringValue() != client.CmdNetbankingStatus {
		t.Fatalf("unexpected reply: %v", out)
	}
	if code := nested(out, "result").GetFields()["bankCode"].GetStringValue(); code != "HDFB" {
		t.Fatalf("result not passed through: %v", out)
	}
	if cmd, var1 := f.gateway.last(); cmd != client.CmdNetbankingStatus || var1 != "HDFB" {
		t.Fatalf("gateway saw %q %q", cmd, var1)
	}

	if _, err := f.call(t, "GatewayQuery", map[string]any{
		"command": client.CmdVerifyPayment,
		"txnid":   []any{"A1", "A2"},
	}); err != nil {
		t.Fatalf("verify_payment: %v", err)
	}
	if _, var1 := f.gateway.last(); var1 != "A1|A2" {
		t.Fatalf("var1 = %q, want A1|A2", var1)
	}
}

func TestGatewayQueryRejections(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   map[string]any
	}{
		{"refund bypass", map[string]any{"command": client.CmdCancelRefund, "mihpayid": "1", "amount": "1"}},
		{"unknown command", map[string]any{"command": "drop_tables"}},
		{"missing argument", map[string]any{"command": client.CmdCheckPayment}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.call(t, "GatewayQuery", tc.in)
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("code = %v, want InvalidArgument", status.Code(err))
			}
		})
	}
	if cmd, _ := f.gateway.last(); cmd != "" {
		t.Fatalf("gateway was called with %q", cmd)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := f.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
