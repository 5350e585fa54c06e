package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
)

var checkoutForm = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting to payment</title>
</head>
<body>
<form id="payuForm" method="post" action="{{.URL}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
<script>document.getElementById("payuForm").submit();</script>
</body>
</html>
`))

// GetCheckout rebuilds the signed form of a pending transaction, keeping
// the surl/furl it was created with.
func (uc *DefaultPaymentUsecase) GetCheckout(ctx context.Context, txnID string) (*paymentdto.Checkout, error) {
	tx, err := uc.txRepo.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if !tx.IsPending() {
		return nil, fmt.Errorf("%w: transaction %s is %s", domain.ErrInvalidTransition, txnID, tx.Status)
	}

	surl, furl := uc.opts.SuccessURL, uc.opts.FailureURL
	var stored map[string]string
	if len(tx.RawRequest) > 0 && json.Unmarshal(tx.RawRequest, &stored) == nil {
		if stored["surl"] != "" {
			surl = stored["surl"]
		}
		if stored["furl"] != "" {
			furl = stored["furl"]
		}
	}
	return uc.buildCheckout(tx, surl, furl), nil
}

// GetPaymentURL is the gateway URL with the signed form as query string.
func (uc *DefaultPaymentUsecase) GetPaymentURL(ctx context.Context, txnID string) (string, error) {
	checkout, err := uc.GetCheckout(ctx, txnID)
	if err != nil {
		return "", err
	}
	sep := "?"
	if strings.Contains(checkout.URL, "?") {
		sep = "&"
	}
	return checkout.URL + sep + checkout.Values().Encode(), nil
}

func (uc *DefaultPaymentUsecase) RenderCheckoutForm(ctx context.Context, txnID string) ([]byte, error) {
	checkout, err := uc.GetCheckout(ctx, txnID)
	if err != nil {
		return nil, err
	}
	return RenderForm(checkout)
}

// RenderForm produces the auto-submitting HTML page. Every value is
// escaped by html/template.
func RenderForm(checkout *paymentdto.Checkout) ([]byte, error) {
	var buf bytes.Buffer
	if err := checkoutForm.Execute(&buf, checkout); err != nil {
		return nil, fmt.Errorf("render checkout form: %w", err)
	}
	return buf.Bytes(), nil
}
