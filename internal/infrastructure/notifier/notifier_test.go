package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

func TestCallbackIsSigned(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewCallbackNotifier(srv.URL, "shh", time.Second)
	ev := domain.PaymentEvent{Kind: domain.KindTransaction, TxnID: "T1", Status: "success", Amount: "100.00"}
	if err := n.PublishPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("PublishPaymentEvent: %v", err)
	}

	var decoded domain.PaymentEvent
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded.TxnID != "T1" {
		t.Fatalf("unexpected body %s (%v)", gotBody, err)
	}
	if gotSig != Sign([]byte("shh"), gotBody) {
		t.Fatalf("signature %q does not match body", gotSig)
	}
}

func TestCallbackNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewCallbackNotifier(srv.URL, "", time.Second)
	if err := n.PublishPaymentEvent(context.Background(), domain.PaymentEvent{TxnID: "T1"}); err == nil {
		t.Fatal("expected error for 502")
	}
}
