package grpcapi

import (
	"context"

	"github.com/LavaJover/shvark-payu-service/internal/delivery/views"
	paymentdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/payment"
	refunddto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/refund"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
	"google.golang.org/protobuf/types/known/structpb"
)

type PaymentHandler struct {
	payments payment.PaymentUsecase
	refunds  refund.RefundUsecase
	webhooks webhook.WebhookUsecase
	gateway  GatewayQuerier
}

func NewPaymentHandler(payments payment.PaymentUsecase, refunds refund.RefundUsecase, webhooks webhook.WebhookUsecase, gateway GatewayQuerier) *PaymentHandler {
	return &PaymentHandler{payments: payments, refunds: refunds, webhooks: webhooks, gateway: gateway}
}

var _ PaymentServiceServer = (*PaymentHandler)(nil)

func (h *PaymentHandler) InitiatePayment(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	out, err := h.payments.InitiatePayment(ctx, &paymentdto.InitiatePaymentInput{
		TxnID:       a.str("txnid"),
		Amount:      a.str("amount"),
		ProductInfo: a.str("productinfo"),
		FirstName:   a.str("firstname"),
		LastName:    a.str("lastname"),
		Email:       a.str("email"),
		Phone:       a.str("phone"),
		Address1:    a.str("address1"),
		Address2:    a.str("address2"),
		City:        a.str("city"),
		State:       a.str("state"),
		Country:     a.str("country"),
		Zipcode:     a.str("zipcode"),
		UDF:         [5]string{a.str("udf1"), a.str("udf2"), a.str("udf3"), a.str("udf4"), a.str("udf5")},
		SuccessURL:  a.str("surl"),
		FailureURL:  a.str("furl"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"transaction": views.Transaction(out.Transaction),
		"checkout":    out.Checkout,
	})
}

func (h *PaymentHandler) GetTransaction(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	if err := a.require("txnid"); err != nil {
		return nil, toStatus(err)
	}
	tx, err := h.payments.GetTransaction(ctx, a.str("txnid"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(views.Transaction(tx))
}

func (h *PaymentHandler) ListTransactions(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	input := &paymentdto.ListTransactionsInput{
		Status:      a.str("status"),
		PaymentMode: a.str("payment_mode"),
		Email:       a.str("email"),
		Page:        a.int("page"),
		Limit:       a.int("limit"),
	}
	var err error
	if input.From, err = a.time("from"); err != nil {
		return nil, toStatus(err)
	}
	if input.To, err = a.time("to"); err != nil {
		return nil, toStatus(err)
	}
	out, err := h.payments.ListTransactions(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"transactions": views.Transactions(out.Transactions),
		"pagination":   out.Pagination,
	})
}

// VerifyPayment accepts either txnid or the gateway's mihpayid.
func (h *PaymentHandler) VerifyPayment(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	var (
		out *paymentdto.VerifyPaymentOutput
		err error
	)
	switch {
	case a.str("txnid") != "":
		out, err = h.payments.VerifyPayment(ctx, a.str("txnid"))
	case a.str("mihpayid") != "":
		out, err = h.payments.VerifyByGatewayID(ctx, a.str("mihpayid"))
	default:
		err = a.require("txnid")
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"transaction": views.Transaction(out.Transaction),
		"changed":     out.Changed,
		"gateway":     out.Gateway,
	})
}

func (h *PaymentHandler) RequestRefund(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	out, err := h.refunds.RequestRefund(ctx, &refunddto.RequestRefundInput{
		TxnID:  a.str("txnid"),
		Amount: a.str("amount"),
		Type:   a.str("type"),
		Reason: a.str("reason"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"refund":  views.Refund(out.Refund),
		"gateway": out.Gateway,
	})
}

func (h *PaymentHandler) GetRefundSummary(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	if err := a.require("txnid"); err != nil {
		return nil, toStatus(err)
	}
	summary, err := h.refunds.GetRefundSummary(ctx, a.str("txnid"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(views.RefundSummary(summary))
}

func (h *PaymentHandler) CancelRefund(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	if err := a.require("refund_id"); err != nil {
		return nil, toStatus(err)
	}
	cancelled, err := h.refunds.CancelRefund(ctx, a.str("refund_id"), a.str("reason"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(views.Refund(cancelled))
}

func (h *PaymentHandler) ListWebhooks(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	input := &webhookdto.ListWebhooksInput{
		Status:    a.str("status"),
		EventType: a.str("event_type"),
		TxnID:     a.str("txnid"),
		Limit:     a.int("limit"),
	}
	if a.has("verified") {
		verified := a.bool("verified")
		input.Verified = &verified
	}
	events, err := h.webhooks.ListWebhooks(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"webhooks": views.Webhooks(events)})
}

func (h *PaymentHandler) ReprocessWebhook(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	if err := a.require("webhook_id"); err != nil {
		return nil, toStatus(err)
	}
	ev, err := h.webhooks.Reprocess(ctx, a.str("webhook_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(views.Webhook(ev))
}

func reply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}
