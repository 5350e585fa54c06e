package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payu-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var reservingStatuses = []domain.RefundStatus{domain.RefundPending, domain.RefundProcessing, domain.RefundSuccess}

type DefaultRefundRepository struct {
	DB *gorm.DB
}

func NewDefaultRefundRepository(db *gorm.DB) *DefaultRefundRepository {
	return &DefaultRefundRepository{DB: db}
}

// CreateWithinCap holds the transaction row lock while summing reserved
// refunds, so concurrent requests for one txnid are serialised.
func (r *DefaultRefundRepository) CreateWithinCap(ctx context.Context, refund *domain.Refund) error {
	return r.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var tx models.TransactionModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tx, "txnid = ?", refund.TxnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, refund.TxnID)
			}
			return err
		}
		if tx.Status != domain.TransactionSuccess {
			return fmt.Errorf("%w: transaction is %s", domain.ErrNotRefundable, tx.Status)
		}

		reserved, err := sumAmounts(db, refund.TxnID, reservingStatuses)
		if err != nil {
			return err
		}
		if left := tx.Amount.Sub(reserved); refund.Amount.GreaterThan(left) {
			return fmt.Errorf("%w: requested %s, remaining %s", domain.ErrOverRefund,
				domain.FormatAmount(refund.Amount), domain.FormatAmount(decimal.Max(left, decimal.Zero)))
		}

		if refund.GatewayID == "" && tx.GatewayID != nil {
			refund.GatewayID = *tx.GatewayID
		}
		model := mappers.ToGORMRefund(refund)
		model.ID = uuid.NewString()
		if err := db.Create(model).Error; err != nil {
			return err
		}
		refund.CreatedAt, refund.UpdatedAt = model.CreatedAt, model.UpdatedAt
		return nil
	})
}

func (r *DefaultRefundRepository) GetByRefundID(ctx context.Context, refundID string) (*domain.Refund, error) {
	return firstRefund(r.DB.WithContext(ctx), "refund_id = ?", refundID)
}

func (r *DefaultRefundRepository) GetByGatewayRefundID(ctx context.Context, gatewayRefundID string) (*domain.Refund, error) {
	return firstRefund(r.DB.WithContext(ctx), "gateway_refund_id = ?", gatewayRefundID)
}

func firstRefund(db *gorm.DB, query string, arg any) (*domain.Refund, error) {
	var model models.RefundModel
	if err := db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, err
	}
	return mappers.ToDomainRefund(&model), nil
}

func (r *DefaultRefundRepository) ListByTxnID(ctx context.Context, txnID string) ([]*domain.Refund, error) {
	var rows []models.RefundModel
	if err := r.DB.WithContext(ctx).Where("txnid = ?", txnID).Order("requested_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRefunds(rows), nil
}

func (r *DefaultRefundRepository) ListByStatus(ctx context.Context, statuses []domain.RefundStatus, limit int) ([]*domain.Refund, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var rows []models.RefundModel
	err := r.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainRefunds(rows), nil
}

// UpdateStatus applies ResolveRefundUpdate under a row lock.
func (r *DefaultRefundRepository) UpdateStatus(ctx context.Context, refundID string, update domain.RefundUpdate) (*domain.Refund, bool, error) {
	var (
		result  *domain.Refund
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var model models.RefundModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "refund_id = ?", refundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRefundNotFound
			}
			return err
		}

		apply, err := domain.ResolveRefundUpdate(model.Status, update)
		if err != nil {
			return fmt.Errorf("%w: refund %s -> %s", err, model.Status, update.Status)
		}
		if !apply {
			result = mappers.ToDomainRefund(&model)
			return nil
		}

		updates := map[string]any{"status": update.Status}
		if update.GatewayRefundID != "" && model.GatewayRefundID == nil {
			updates["gateway_refund_id"] = update.GatewayRefundID
		}
		if len(update.RawResponse) > 0 {
			updates["raw_response"] = mappers.ToJSON(update.RawResponse)
		}
		if update.Status.IsTerminal() {
			updates["processed_at"] = update.At
		}

		res := db.Model(&models.RefundModel{}).
			Where("refund_id = ? AND status = ?", refundID, model.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w: refund %s changed concurrently", domain.ErrInvalidTransition, refundID)
		}

		refund, err := firstRefund(db, "refund_id = ?", refundID)
		if err != nil {
			return err
		}
		result, changed = refund, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (r *DefaultRefundRepository) SumSucceeded(ctx context.Context, txnID string) (decimal.Decimal, error) {
	return sumAmounts(r.DB.WithContext(ctx), txnID, []domain.RefundStatus{domain.RefundSuccess})
}

func sumAmounts(db *gorm.DB, txnID string, statuses []domain.RefundStatus) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := db.Model(&models.RefundModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("txnid = ? AND status IN ?", txnID, statuses).
		Row().
		Scan(&sum)
	return sum, err
}

func toDomainRefunds(rows []models.RefundModel) []*domain.Refund {
	out := make([]*domain.Refund, 0, len(rows))
	for i := range rows {
		out = append(out, mappers.ToDomainRefund(&rows[i]))
	}
	return out
}
