package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
	"github.com/shopspring/decimal"
)

const (
	reasonSignature = "signature mismatch"
	reasonUnknown   = "unrecognised event type"
)

// Receive records a delivery and applies it to the ledger at most once.
//
// A replay of an already processed event returns the stored event without
// touching anything. Ledger-level rejections (unknown txnid, invalid
// transition) end up in the event's status and processing error; only a
// signature mismatch or a storage failure is returned as an error.
func (uc *DefaultWebhookUsecase) Receive(ctx context.Context, n webhookdto.Notification) (*domain.WebhookEvent, error) {
	if n.Payload == nil {
		return nil, fmt.Errorf("%w: empty webhook payload", domain.ErrInvalidParams)
	}
	eventType := eventTypeOf(n.Payload)

	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return nil, err
	}
	headers, err := json.Marshal(n.Headers)
	if err != nil {
		return nil, err
	}
	ev := &domain.WebhookEvent{
		WebhookID:  webhookID(n, eventType),
		TxnID:      n.Payload["txnid"],
		GatewayID:  n.Payload["mihpayid"],
		EventType:  eventType,
		Status:     domain.WebhookReceived,
		Payload:    payload,
		Headers:    headers,
		Signature:  n.Payload["hash"],
		ReceivedAt: uc.now(),
	}

	stored, created, err := uc.repo.Save(ctx, ev)
	if err != nil {
		return nil, err
	}
	if !created && (stored.IsProcessed() || stored.Status == domain.WebhookIgnored) {
		slog.Info("webhook replay ignored", "webhook_id", stored.WebhookID, "event_type", stored.EventType)
		uc.metrics.RecordWebhook(eventLabel(stored.EventType), "replayed")
		return stored, nil
	}
	return uc.process(ctx, stored)
}

// Reprocess runs a stored event again. Processed events are left alone.
func (uc *DefaultWebhookUsecase) Reprocess(ctx context.Context, webhookID string) (*domain.WebhookEvent, error) {
	ev, err := uc.repo.Get(ctx, webhookID)
	if err != nil {
		return nil, err
	}
	if ev.IsProcessed() {
		return ev, nil
	}
	return uc.process(ctx, ev)
}

func (uc *DefaultWebhookUsecase) process(ctx context.Context, ev *domain.WebhookEvent) (*domain.WebhookEvent, error) {
	var payload map[string]string
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return uc.finish(ctx, ev, domain.WebhookFailed, "malformed payload: "+err.Error())
	}

	verified := payload["key"] == uc.signer.Key() && uc.signer.VerifyValues(payload)
	if err := uc.repo.SetVerified(ctx, ev.WebhookID, verified); err != nil {
		return nil, err
	}
	ev.Verified = verified
	if !verified {
		uc.metrics.RecordSignatureFailure(domain.SourceWebhook)
		slog.Warn("webhook signature mismatch", "webhook_id", ev.WebhookID, "txnid", ev.TxnID)
		if _, err := uc.finish(ctx, ev, domain.WebhookFailed, reasonSignature); err != nil {
			return nil, err
		}
		return ev, domain.ErrSignatureMismatch
	}

	var err error
	switch {
	case ev.EventType.IsPaymentEvent():
		err = uc.applyPayment(ctx, ev, payload)
	case ev.EventType.IsRefundEvent():
		err = uc.applyRefund(ctx, ev, payload)
	case ev.EventType.IsInformational():
		slog.Info("informational webhook recorded", "webhook_id", ev.WebhookID, "event_type", ev.EventType, "txnid", ev.TxnID)
	default:
		return uc.finish(ctx, ev, domain.WebhookIgnored, fmt.Sprintf("%s: %s", reasonUnknown, ev.EventType))
	}

	if err != nil {
		if !isLedgerRejection(err) {
			if _, ferr := uc.finish(ctx, ev, domain.WebhookFailed, err.Error()); ferr != nil {
				slog.Error("failed to record webhook failure", "webhook_id", ev.WebhookID, "error", ferr)
			}
			return nil, err
		}
		return uc.finish(ctx, ev, domain.WebhookFailed, err.Error())
	}
	return uc.finish(ctx, ev, domain.WebhookProcessed, "")
}

func (uc *DefaultWebhookUsecase) finish(ctx context.Context, ev *domain.WebhookEvent, status domain.WebhookStatus, reason string) (*domain.WebhookEvent, error) {
	at := uc.now()
	finished, err := uc.repo.Finish(ctx, ev.WebhookID, status, reason, at)
	if err != nil {
		return nil, err
	}
	if !finished {
		// Processed concurrently by another delivery.
		return uc.repo.Get(ctx, ev.WebhookID)
	}
	ev.Status, ev.ProcessingError, ev.ProcessedAt = status, reason, &at
	uc.metrics.RecordWebhook(eventLabel(ev.EventType), string(status))
	if status == domain.WebhookFailed {
		slog.Warn("webhook failed", "webhook_id", ev.WebhookID, "event_type", ev.EventType, "txnid", ev.TxnID, "reason", reason)
	}
	return ev, nil
}

func (uc *DefaultWebhookUsecase) applyPayment(ctx context.Context, ev *domain.WebhookEvent, payload map[string]string) error {
	txnID := payload["txnid"]
	if txnID == "" {
		return fmt.Errorf("%w: txnid is missing", domain.ErrInvalidParams)
	}
	tx, err := uc.payments.GetTransaction(ctx, txnID)
	if err != nil {
		return err
	}
	if amt := payload["amount"]; amt != "" {
		reported, err := decimal.NewFromString(amt)
		if err != nil || !reported.Equal(tx.Amount) {
			return fmt.Errorf("%w: webhook amount %q does not match %s", domain.ErrInvalidAmount, amt, domain.FormatAmount(tx.Amount))
		}
	}

	// Only the signed status decides the outcome; event_type is outside
	// the hash and must agree with it.
	outcome := client.OutcomeFromValues(payload, ev.Payload, uc.now())
	if !eventMatchesStatus(ev.EventType, outcome.Status) {
		return fmt.Errorf("%w: event type %s does not match signed status %q", domain.ErrInvalidParams, ev.EventType, payload["status"])
	}
	_, _, err = uc.payments.ApplyOutcome(ctx, txnID, outcome, domain.SourceWebhook)
	return err
}

func eventMatchesStatus(t domain.WebhookEventType, s domain.TransactionStatus) bool {
	switch t {
	case domain.EventPaymentSuccess:
		return s == domain.TransactionSuccess
	case domain.EventPaymentFailed:
		return s == domain.TransactionFailure || s == domain.TransactionCancelled
	case domain.EventPaymentPending:
		return s == domain.TransactionPending
	}
	return false
}

func (uc *DefaultWebhookUsecase) applyRefund(ctx context.Context, ev *domain.WebhookEvent, payload map[string]string) error {
	token := payload["token"]
	if token == "" {
		token = payload["refund_id"]
	}
	r, err := uc.refunds.ResolveRefund(ctx, payload["request_id"], token)
	if err != nil {
		return err
	}
	// request_id and token are unsigned; the refund must belong to the
	// signed txnid.
	if r.TxnID != payload["txnid"] {
		return fmt.Errorf("%w: refund %s does not belong to txnid %q", domain.ErrInvalidParams, r.RefundID, payload["txnid"])
	}

	var status domain.RefundStatus
	switch ev.EventType {
	case domain.EventRefundSuccess:
		status = domain.RefundSuccess
	case domain.EventRefundFailed:
		status = domain.RefundFailed
	case domain.EventRefundPending:
		status = domain.RefundProcessing
	}
	_, _, err = uc.refunds.ApplyRefundUpdate(ctx, r.RefundID, domain.RefundUpdate{
		Status:          status,
		GatewayRefundID: payload["request_id"],
		RawResponse:     ev.Payload,
	}, domain.SourceWebhook)
	return err
}

// eventLabel keeps arbitrary event names out of metric labels.
func eventLabel(t domain.WebhookEventType) string {
	if !t.Known() {
		return "unknown"
	}
	return string(t)
}

// isLedgerRejection reports errors that describe the event itself rather
// than the service's health. Such events are marked failed and can be
// reprocessed later.
func isLedgerRejection(err error) bool {
	for _, target := range []error{
		domain.ErrTransactionNotFound,
		domain.ErrRefundNotFound,
		domain.ErrInvalidTransition,
		domain.ErrInvalidAmount,
		domain.ErrInvalidParams,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
