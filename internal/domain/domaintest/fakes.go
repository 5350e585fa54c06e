package domaintest

import (
	"context"
	"sync"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.PaymentEvent
}

func (p *RecordingPublisher) PublishPaymentEvent(_ context.Context, event domain.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []domain.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PaymentEvent(nil), p.events...)
}

// FakeGateway answers with the configured funcs; an unset func behaves
// like an unreachable gateway.
type FakeGateway struct {
	URL string

	VerifyPaymentFunc           func(ctx context.Context, txnIDs ...string) (client.Result, error)
	CheckPaymentFunc            func(ctx context.Context, gatewayID string) (client.Result, error)
	CancelRefundFunc            func(ctx context.Context, p client.CancelRefundParams) (client.Result, error)
	RefundStatusFunc            func(ctx context.Context, requestID string) (client.Result, error)
	RefundStatusByGatewayIDFunc func(ctx context.Context, gatewayID string) (client.Result, error)

	mu    sync.Mutex
	calls []string
}

func (g *FakeGateway) record(command string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, command)
}

func (g *FakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func unreachable() (client.Result, error) {
	return client.FailureResult("transport error: connection refused"), nil
}

func (g *FakeGateway) PaymentURL() string {
	if g.URL == "" {
		return "https://sandboxsecure.payu.in/_payment"
	}
	return g.URL
}

func (g *FakeGateway) VerifyPayment(ctx context.Context, txnIDs ...string) (client.Result, error) {
	g.record(client.CmdVerifyPayment)
	if g.VerifyPaymentFunc == nil {
		return unreachable()
	}
	return g.VerifyPaymentFunc(ctx, txnIDs...)
}

func (g *FakeGateway) CheckPayment(ctx context.Context, gatewayID string) (client.Result, error) {
	g.record(client.CmdCheckPayment)
	if g.CheckPaymentFunc == nil {
		return unreachable()
	}
	return g.CheckPaymentFunc(ctx, gatewayID)
}

func (g *FakeGateway) CancelRefund(ctx context.Context, p client.CancelRefundParams) (client.Result, error) {
	g.record(client.CmdCancelRefund)
	if g.CancelRefundFunc == nil {
		return unreachable()
	}
	return g.CancelRefundFunc(ctx, p)
}

func (g *FakeGateway) RefundStatus(ctx context.Context, requestID string) (client.Result, error) {
	g.record(client.CmdCheckActionStatus)
	if g.RefundStatusFunc == nil {
		return unreachable()
	}
	return g.RefundStatusFunc(ctx, requestID)
}

func (g *FakeGateway) RefundStatusByGatewayID(ctx context.Context, gatewayID string) (client.Result, error) {
	g.record(client.CmdCheckActionStatus)
	if g.RefundStatusByGatewayIDFunc == nil {
		return unreachable()
	}
	return g.RefundStatusByGatewayIDFunc(ctx, gatewayID)
}
