package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/config"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/refund"
	"github.com/LavaJover/shvark-payu-service/internal/usecase/webhook"
)

// BackgroundTasks runs the reconciliation loops that close gaps left by
// lost webhooks and abandoned browser redirects.
type BackgroundTasks struct {
	PaymentUsecase payment.PaymentUsecase
	RefundUsecase  refund.RefundUsecase
	WebhookUsecase webhook.WebhookUsecase
	Subscriber     domain.SubscriberPort
	Config         config.Reconcile
	Kafka          config.KafkaService
}

func NewBackgroundTasks(
	paymentUC payment.PaymentUsecase,
	refundUC refund.RefundUsecase,
	webhookUC webhook.WebhookUsecase,
	sub domain.SubscriberPort,
	cfg config.Reconcile,
	kafka config.KafkaService,
) *BackgroundTasks {
	return &BackgroundTasks{
		PaymentUsecase: paymentUC,
		RefundUsecase:  refundUC,
		WebhookUsecase: webhookUC,
		Subscriber:     sub,
		Config:         cfg,
		Kafka:          kafka,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startRefundPolling(ctx)
	go bt.startPendingVerification(ctx)
	if bt.Subscriber != nil && bt.Kafka.WebhookTopic != "" {
		go bt.startWebhookRelay(ctx)
	}
}

func (bt *BackgroundTasks) startRefundPolling(ctx context.Context) {
	every(ctx, bt.Config.RefundPollInterval, func() {
		checked, updated, err := bt.RefundUsecase.PollRefunds(ctx, bt.Config.BatchSize)
		if err != nil {
			slog.Error("refund polling failed", "error", err)
			return
		}
		if checked > 0 {
			slog.Info("refunds polled", "checked", checked, "updated", updated)
		}
	})
}

func (bt *BackgroundTasks) startPendingVerification(ctx context.Context) {
	every(ctx, bt.Config.PendingVerifyInterval, func() {
		checked, updated, err := bt.PaymentUsecase.VerifyStalePending(ctx, bt.Config.PendingVerifyAfter, bt.Config.BatchSize)
		if err != nil {
			slog.Error("pending verification failed", "error", err)
			return
		}
		if checked > 0 {
			slog.Info("stale pending transactions verified", "checked", checked, "updated", updated)
		}
	})
}

func (bt *BackgroundTasks) startWebhookRelay(ctx context.Context) {
	slog.Info("webhook relay started", "topic", bt.Kafka.WebhookTopic, "group", bt.Kafka.WebhookGroup)
	if err := webhook.ConsumeRelay(ctx, bt.Subscriber, bt.Kafka.WebhookTopic, bt.Kafka.WebhookGroup, bt.WebhookUsecase); err != nil {
		slog.Error("webhook relay stopped", "error", err)
	}
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
