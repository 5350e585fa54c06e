// Package domaintest provides in-memory repositories that enforce the same
// guards as the postgres implementations.
package domaintest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Store backs all three repositories so the refund cap can see
// transactions, as the database does.
type Store struct {
	mu       sync.Mutex
	txs      map[string]*domain.Transaction
	refunds  map[string]*domain.Refund
	webhooks map[string]*domain.WebhookEvent

	// Writes counts committed ledger mutations (transaction outcomes and
	// refund status changes).
	Writes int
}

func NewStore() *Store {
	return &Store{
		txs:      make(map[string]*domain.Transaction),
		refunds:  make(map[string]*domain.Refund),
		webhooks: make(map[string]*domain.WebhookEvent),
	}
}

func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s} }
func (s *Store) Refunds() *RefundRepo           { return &RefundRepo{s} }
func (s *Store) Webhooks() *WebhookRepo         { return &WebhookRepo{s} }

func (s *Store) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Writes
}

func copyTx(t *domain.Transaction) *domain.Transaction {
	c := *t
	return &c
}

func copyRefund(r *domain.Refund) *domain.Refund {
	c := *r
	return &c
}

func copyWebhook(w *domain.WebhookEvent) *domain.WebhookEvent {
	c := *w
	return &c
}

type TransactionRepo struct{ s *Store }

func (r *TransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txs[tx.TxnID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, tx.TxnID)
	}
	now := time.Now().UTC()
	tx.CreatedAt, tx.UpdatedAt = now, now
	r.s.txs[tx.TxnID] = copyTx(tx)
	return nil
}

func (r *TransactionRepo) GetByTxnID(_ context.Context, txnID string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[txnID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTx(tx), nil
}

func (r *TransactionRepo) GetByGatewayID(_ context.Context, gatewayID string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txs {
		if gatewayID != "" && tx.GatewayID == gatewayID {
			return copyTx(tx), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *TransactionRepo) ApplyOutcome(_ context.Context, txnID string, outcome domain.TransactionOutcome) (*domain.Transaction, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[txnID]
	if !ok {
		return nil, false, domain.ErrTransactionNotFound
	}
	apply, err := domain.ResolveTransactionTransition(tx.Status, outcome.Status)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s -> %s", err, tx.Status, outcome.Status)
	}
	if !apply {
		return copyTx(tx), false, nil
	}

	tx.Status = outcome.Status
	if tx.GatewayID == "" {
		tx.GatewayID = outcome.GatewayID
	}
	if outcome.PaymentMode != "" {
		tx.PaymentMode = outcome.PaymentMode
	}
	if outcome.Signature != "" {
		tx.Signature = outcome.Signature
	}
	if len(outcome.RawResponse) > 0 {
		tx.RawResponse = outcome.RawResponse
	}
	tx.BankRef, tx.ErrorCode, tx.ErrorMessage = outcome.BankRef, outcome.ErrorCode, outcome.ErrorMessage
	at := outcome.CompletedAt
	tx.CompletedAt = &at
	tx.UpdatedAt = time.Now().UTC()
	r.s.Writes++
	return copyTx(tx), true, nil
}

func (r *TransactionRepo) List(_ context.Context, f domain.TransactionFilter) ([]*domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*domain.Transaction
	for _, tx := range r.s.txs {
		if f.Status != nil && tx.Status != *f.Status {
			continue
		}
		if f.PaymentMode != nil && tx.PaymentMode != *f.PaymentMode {
			continue
		}
		if f.Email != "" && tx.Payer.Email != f.Email {
			continue
		}
		if !f.From.IsZero() && tx.InitiatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !tx.InitiatedAt.Before(f.To) {
			continue
		}
		all = append(all, copyTx(tx))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].InitiatedAt.After(all[j].InitiatedAt) })

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if f.Page <= 0 || f.Limit <= 0 {
		return all, total, nil
	}
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *TransactionRepo) FindStalePending(_ context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range r.s.txs {
		if tx.Status == domain.TransactionPending && tx.InitiatedAt.Before(before) {
			out = append(out, copyTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.Before(out[j].InitiatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type RefundRepo struct{ s *Store }

func (r *RefundRepo) CreateWithinCap(_ context.Context, refund *domain.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[refund.TxnID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, refund.TxnID)
	}
	if tx.Status != domain.TransactionSuccess {
		return fmt.Errorf("%w: transaction is %s", domain.ErrNotRefundable, tx.Status)
	}
	reserved := decimal.Zero
	for _, existing := range r.s.refunds {
		if existing.TxnID == refund.TxnID && existing.Status.Reserves() {
			reserved = reserved.Add(existing.Amount)
		}
	}
	if refund.Amount.GreaterThan(tx.Amount.Sub(reserved)) {
		return fmt.Errorf("%w: requested %s, remaining %s", domain.ErrOverRefund,
			domain.FormatAmount(refund.Amount), domain.FormatAmount(tx.Amount.Sub(reserved)))
	}
	if refund.GatewayID == "" {
		refund.GatewayID = tx.GatewayID
	}
	now := time.Now().UTC()
	refund.CreatedAt, refund.UpdatedAt = now, now
	r.s.refunds[refund.RefundID] = copyRefund(refund)
	return nil
}

func (r *RefundRepo) GetByRefundID(_ context.Context, refundID string) (*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refund, ok := r.s.refunds[refundID]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	return copyRefund(refund), nil
}

func (r *RefundRepo) GetByGatewayRefundID(_ context.Context, gatewayRefundID string) (*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, refund := range r.s.refunds {
		if gatewayRefundID != "" && refund.GatewayRefundID == gatewayRefundID {
			return copyRefund(refund), nil
		}
	}
	return nil, domain.ErrRefundNotFound
}

func (r *RefundRepo) ListByTxnID(_ context.Context, txnID string) ([]*domain.Refund, error) {
	return r.filter(func(x *domain.Refund) bool { return x.TxnID == txnID }, 0), nil
}

func (r *RefundRepo) ListByStatus(_ context.Context, statuses []domain.RefundStatus, limit int) ([]*domain.Refund, error) {
	return r.filter(func(x *domain.Refund) bool {
		for _, s := range statuses {
			if x.Status == s {
				return true
			}
		}
		return false
	}, limit), nil
}

func (r *RefundRepo) filter(keep func(*domain.Refund) bool, limit int) []*domain.Refund {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Refund
	for _, refund := range r.s.refunds {
		if keep(refund) {
			out = append(out, copyRefund(refund))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RefundID < out[j].RefundID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *RefundRepo) UpdateStatus(_ context.Context, refundID string, update domain.RefundUpdate) (*domain.Refund, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refund, ok := r.s.refunds[refundID]
	if !ok {
		return nil, false, domain.ErrRefundNotFound
	}
	apply, err := domain.ResolveRefundUpdate(refund.Status, update)
	if err != nil {
		return nil, false, fmt.Errorf("%w: refund %s -> %s", err, refund.Status, update.Status)
	}
	if !apply {
		return copyRefund(refund), false, nil
	}
	refund.Status = update.Status
	if refund.GatewayRefundID == "" {
		refund.GatewayRefundID = update.GatewayRefundID
	}
	if len(update.RawResponse) > 0 {
		refund.RawResponse = update.RawResponse
	}
	if update.Status.IsTerminal() {
		at := update.At
		refund.ProcessedAt = &at
	}
	refund.UpdatedAt = time.Now().UTC()
	r.s.Writes++
	return copyRefund(refund), true, nil
}

func (r *RefundRepo) SumSucceeded(_ context.Context, txnID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, refund := range r.s.refunds {
		if refund.TxnID == txnID && refund.Status == domain.RefundSuccess {
			sum = sum.Add(refund.Amount)
		}
	}
	return sum, nil
}

type WebhookRepo struct{ s *Store }

func (r *WebhookRepo) Save(_ context.Context, event *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.webhooks[event.WebhookID]; ok {
		return copyWebhook(existing), false, nil
	}
	r.s.webhooks[event.WebhookID] = copyWebhook(event)
	return copyWebhook(event), true, nil
}

func (r *WebhookRepo) Get(_ context.Context, webhookID string) (*domain.WebhookEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.webhooks[webhookID]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}
	return copyWebhook(ev), nil
}

func (r *WebhookRepo) SetVerified(_ context.Context, webhookID string, verified bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.webhooks[webhookID]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	ev.Verified = verified
	return nil
}

func (r *WebhookRepo) Finish(_ context.Context, webhookID string, status domain.WebhookStatus, processingError string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.webhooks[webhookID]
	if !ok {
		return false, domain.ErrWebhookNotFound
	}
	if ev.Status == domain.WebhookProcessed {
		return false, nil
	}
	ev.Status, ev.ProcessingError = status, processingError
	ev.ProcessedAt = &at
	return true, nil
}

func (r *WebhookRepo) List(_ context.Context, f domain.WebhookFilter) ([]*domain.WebhookEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.WebhookEvent
	for _, ev := range r.s.webhooks {
		if f.Status != nil && ev.Status != *f.Status {
			continue
		}
		if f.Verified != nil && ev.Verified != *f.Verified {
			continue
		}
		if f.EventType != nil && ev.EventType != *f.EventType {
			continue
		}
		if f.TxnID != "" && ev.TxnID != f.TxnID {
			continue
		}
		out = append(out, copyWebhook(ev))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
