package logger

import (
	"strings"
	"testing"

	"github.com/LavaJover/shvark-payu-service/internal/client"
)

func TestAuditVar1(t *testing.T) {
	invoice := `{"amount":"100.00","txnid":"INV1","productinfo":"Test Product","firstname":"John",` +
		`"email":"john@example.com","phone":"9999999999","send_email_now":"1"}`

	got := auditVar1(client.CmdCreateInvoice, invoice)
	for _, leaked := range []string{"john@example.com", "9999999999", "John"} {
		if strings.Contains(got, leaked) {
			t.Errorf("invoice var1 leaks %q: %s", leaked, got)
		}
	}
	for _, kept := range []string{`"txnid":"INV1"`, `"amount":"100.00"`, `"email":"[REDACTED]"`} {
		if !strings.Contains(got, kept) {
			t.Errorf("invoice var1 missing %s: %s", kept, got)
		}
	}

	tests := []struct {
		name    string
		command string
		var1    string
		want    string
	}{
		{"checkout not json", client.CmdCheckoutDetails, "john@example.com", "[REDACTED]"},
		{"vpa", client.CmdValidateVPA, "john.doe@okhdfc", "***@okhdfc"},
		{"vpa without handle", client.CmdValidateVPA, "johndoe", "[REDACTED]"},
		{"txnid kept", client.CmdVerifyPayment, "T1|T2", "T1|T2"},
		{"long var1 truncated", client.CmdVerifyPayment, strings.Repeat("T", 300), strings.Repeat("T", 256) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auditVar1(tt.command, tt.var1); got != tt.want {
				t.Errorf("auditVar1 = %q, want %q", got, tt.want)
			}
		})
	}
}
