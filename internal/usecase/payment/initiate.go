package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
)

// InitiatePayment records a pending transaction and returns the signed
// form the browser posts to the gateway.
func (uc *DefaultPaymentUsecase) InitiatePayment(ctx context.Context, input *paymentdto.InitiatePaymentInput) (*paymentdto.InitiatePaymentOutput, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	txnID := input.TxnID
	if txnID == "" {
		txnID = domain.NewTxnID()
	}
	surl, furl := input.SuccessURL, input.FailureURL
	if surl == "" {
		surl = uc.opts.SuccessURL
	}
	if furl == "" {
		furl = uc.opts.FailureURL
	}

	now := uc.now()
	tx := &domain.Transaction{
		TxnID:       txnID,
		Amount:      amount,
		ProductInfo: input.ProductInfo,
		Payer: domain.Payer{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Address1:  input.Address1,
			Address2:  input.Address2,
			City:      input.City,
			State:     input.State,
			Country:   input.Country,
			Zipcode:   input.Zipcode,
		},
		UDF:         input.UDF,
		Status:      domain.TransactionPending,
		InitiatedAt: now,
	}

	checkout := uc.buildCheckout(tx, surl, furl)
	tx.Signature = checkout.Params()["hash"]
	raw, err := json.Marshal(checkout.Params())
	if err != nil {
		return nil, err
	}
	tx.RawRequest = raw

	if err := uc.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	uc.metrics.RecordTransactionInitiated(uc.opts.Env)
	slog.Info("payment initiated", "txnid", tx.TxnID, "amount", domain.FormatAmount(tx.Amount))

	return &paymentdto.InitiatePaymentOutput{Transaction: tx, Checkout: checkout}, nil
}

// buildCheckout lays out the form fields in the order they are posted.
// Optional payer fields are left out when empty; udf1..udf5 always go.
func (uc *DefaultPaymentUsecase) buildCheckout(tx *domain.Transaction, surl, furl string) *paymentdto.Checkout {
	amount := domain.FormatAmount(tx.Amount)
	hash := uc.signer.SignRequest(signature.RequestFields{
		TxnID:       tx.TxnID,
		Amount:      amount,
		ProductInfo: tx.ProductInfo,
		FirstName:   tx.Payer.FirstName,
		Email:       tx.Payer.Email,
		UDF:         tx.UDF,
	})

	fields := []paymentdto.FormField{
		{Name: "key", Value: uc.signer.Key()},
		{Name: "txnid", Value: tx.TxnID},
		{Name: "amount", Value: amount},
		{Name: "productinfo", Value: tx.ProductInfo},
		{Name: "firstname", Value: tx.Payer.FirstName},
		{Name: "email", Value: tx.Payer.Email},
		{Name: "phone", Value: tx.Payer.Phone},
	}
	optional := []paymentdto.FormField{
		{Name: "lastname", Value: tx.Payer.LastName},
		{Name: "address1", Value: tx.Payer.Address1},
		{Name: "address2", Value: tx.Payer.Address2},
		{Name: "city", Value: tx.Payer.City},
		{Name: "state", Value: tx.Payer.State},
		{Name: "country", Value: tx.Payer.Country},
		{Name: "zipcode", Value: tx.Payer.Zipcode},
	}
	for _, f := range optional {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	for i, udf := range tx.UDF {
		fields = append(fields, paymentdto.FormField{Name: fmt.Sprintf("udf%d", i+1), Value: udf})
	}
	fields = append(fields,
		paymentdto.FormField{Name: "surl", Value: surl},
		paymentdto.FormField{Name: "furl", Value: furl},
		paymentdto.FormField{Name: "hash", Value: hash},
	)

	return &paymentdto.Checkout{URL: uc.gateway.PaymentURL(), Fields: fields}
}
