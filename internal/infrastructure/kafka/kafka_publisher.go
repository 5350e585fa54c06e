package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 10 * time.Second

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(brokers []string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes msgs synchronously, bounded by ctx and writeTimeout.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
			Topic: topic,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return k.writer.WriteMessages(ctx, km...)
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}

// PaymentEventPublisher serialises ledger changes onto one topic. Events
// are keyed by txnid so every change of a transaction lands on the same
// partition in commit order.
type PaymentEventPublisher struct {
	port  domain.PublisherPort
	topic string
}

func NewPaymentEventPublisher(port domain.PublisherPort, topic string) *PaymentEventPublisher {
	return &PaymentEventPublisher{port: port, topic: topic}
}

func (p *PaymentEventPublisher) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	return p.port.Publish(ctx, p.topic, domain.Message{Key: []byte(event.TxnID), Value: v})
}

// NopEventPublisher is used when kafka is not configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishPaymentEvent(context.Context, domain.PaymentEvent) error { return nil }

// MultiEventPublisher delivers each event to every publisher and joins
// their errors.
type MultiEventPublisher []domain.EventPublisher

func (m MultiEventPublisher) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishPaymentEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
