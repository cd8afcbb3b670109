package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return conn(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&payment, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(RestaurantScope(ctx)).
		First(&payment, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return conn(ctx, r.db).Save(payment).Error
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) FindByOrderAndStatus(ctx context.Context, orderID uuid.UUID, statuses ...enum.PaymentState) (*entity.Payment, error) {
	var payment entity.Payment
	query := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) FailInFlight(ctx context.Context, orderID uuid.UUID, reason string) (int64, error) {
	result := conn(ctx, r.db).Model(&entity.Payment{}).
		Scopes(RestaurantScope(ctx)).
		Where("order_id = ? AND status IN ?", orderID, []enum.PaymentState{enum.PaymentStatePending, enum.PaymentStateProcessing}).
		Updates(map[string]interface{}{
			"status":         enum.PaymentStateFailed,
			"failure_reason": reason,
		})
	return result.RowsAffected, result.Error
}
