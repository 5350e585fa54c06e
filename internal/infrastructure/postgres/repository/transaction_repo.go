package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPageSize = 50

type DefaultTransactionRepository struct {
	DB *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{DB: db}
}

func (r *DefaultTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	model := mappers.ToGORMTransaction(tx)
	model.ID = uuid.NewString()
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, tx.TxnID)
		}
		return err
	}
	tx.CreatedAt, tx.UpdatedAt = model.CreatedAt, model.UpdatedAt
	return nil
}

func (r *DefaultTransactionRepository) GetByTxnID(ctx context.Context, txnID string) (*domain.Transaction, error) {
	return r.first(r.DB.WithContext(ctx), "txnid = ?", txnID)
}

func (r *DefaultTransactionRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*domain.Transaction, error) {
	return r.first(r.DB.WithContext(ctx), "gateway_id = ?", gatewayID)
}

func (r *DefaultTransactionRepository) first(db *gorm.DB, query string, arg any) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

// ApplyOutcome locks the row, checks the forward-only rule and commits the
// update with status = 'pending' as the write condition.
func (r *DefaultTransactionRepository) ApplyOutcome(ctx context.Context, txnID string, outcome domain.TransactionOutcome) (*domain.Transaction, bool, error) {
	var (
		result  *domain.Transaction
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var model models.TransactionModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "txnid = ?", txnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTransactionNotFound
			}
			return err
		}

		apply, err := domain.ResolveTransactionTransition(model.Status, outcome.Status)
		if err != nil {
			return fmt.Errorf("%w: %s -> %s", err, model.Status, outcome.Status)
		}
		if !apply {
			result = mappers.ToDomainTransaction(&model)
			return nil
		}

		updates := map[string]any{
			"status":        outcome.Status,
			"bank_ref":      outcome.BankRef,
			"error_code":    outcome.ErrorCode,
			"error_message": outcome.ErrorMessage,
			"completed_at":  outcome.CompletedAt,
		}
		if model.GatewayID == nil && outcome.GatewayID != "" {
			updates["gateway_id"] = outcome.GatewayID
		}
		if outcome.PaymentMode != "" {
			updates["payment_mode"] = outcome.PaymentMode
		}
		if outcome.Signature != "" {
			updates["signature"] = outcome.Signature
		}
		if len(outcome.RawResponse) > 0 {
			updates["raw_response"] = mappers.ToJSON(outcome.RawResponse)
		}

		res := db.Model(&models.TransactionModel{}).
			Where("txnid = ? AND status = ?", txnID, domain.TransactionPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w: %s is no longer pending", domain.ErrInvalidTransition, txnID)
		}

		tx, err := r.first(db, "txnid = ?", txnID)
		if err != nil {
			return err
		}
		result, changed = tx, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (r *DefaultTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.PaymentMode != nil {
		q = q.Where("payment_mode = ?", *filter.PaymentMode)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if !filter.From.IsZero() {
		q = q.Where("initiated_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("initiated_at < ?", filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var rows []models.TransactionModel
	if err := q.Order("initiated_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mappers.ToDomainTransaction(&rows[i]))
	}
	return out, total, nil
}

func (r *DefaultTransactionRepository) FindStalePending(ctx context.Context, initiatedBefore time.Time, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var rows []models.TransactionModel
	err := r.DB.WithContext(ctx).
		Where("status = ? AND initiated_at < ?", domain.TransactionPending, initiatedBefore).
		Order("initiated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mappers.ToDomainTransaction(&rows[i]))
	}
	return out, nil
}
