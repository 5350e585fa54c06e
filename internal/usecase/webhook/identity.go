package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	webhookdto "github.com/LavaJover/shvark-payu-service/internal/usecase/dto/webhook"
)

// webhookID picks the deduplication key of a delivery: the transport id,
// an id inside the body, or a digest of the whole body. The digest makes
// an identical redelivery collide with the original while any altered
// body gets its own event.
func webhookID(n webhookdto.Notification, eventType domain.WebhookEventType) string {
	if n.ID != "" {
		return n.ID
	}
	for _, k := range []string{"webhook_id", "event_id"} {
		if id := strings.TrimSpace(n.Payload[k]); id != "" {
			return id
		}
	}
	p := n.Payload
	if p["txnid"] == "" && p["request_id"] == "" {
		return domain.NewWebhookID()
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	h.Write([]byte(eventType))
	for _, k := range keys {
		fmt.Fprintf(h, "\n%s=%s", k, p[k])
	}
	return "WH_" + hex.EncodeToString(h.Sum(nil)[:12])
}

// eventTypeOf reads the event type from the body, or derives a payment
// event from the status the gateway posted.
func eventTypeOf(payload map[string]string) domain.WebhookEventType {
	for _, k := range []string{"event_type", "event"} {
		if v := strings.ToLower(strings.TrimSpace(payload[k])); v != "" {
			return domain.WebhookEventType(v)
		}
	}
	switch strings.ToLower(strings.TrimSpace(payload["status"])) {
	case "success":
		return domain.EventPaymentSuccess
	case "failure", "failed":
		return domain.EventPaymentFailed
	case "pending":
		return domain.EventPaymentPending
	}
	return "unknown"
}
