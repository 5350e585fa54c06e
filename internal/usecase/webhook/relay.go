package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
)

// ConsumeRelay feeds notifications published on topic (JSON-encoded
// webhookdto.Notification) into the reconciler until ctx is done. It lets
// an edge proxy accept deliveries while the service is down.
func ConsumeRelay(ctx context.Context, sub domain.SubscriberPort, topic, groupID string, uc WebhookUsecase) error {
	msgs, err := sub.Subscribe(ctx, topic, groupID)
	if err != nil {
		return err
	}
	for msg := range msgs {
		var n webhookdto.Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			slog.Error("malformed relayed webhook", "key", string(msg.Key), "error", err)
			continue
		}
		if n.ID == "" {
			n.ID = string(msg.Key)
		}
		_, err := uc.Receive(ctx, n)
		switch {
		case errors.Is(err, domain.ErrSignatureMismatch):
			slog.Warn("relayed webhook rejected", "key", string(msg.Key))
		case err != nil:
			slog.Error("relayed webhook failed", "key", string(msg.Key), "error", err)
		}
	}
	return ctx.Err()
}
