package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB) domainRepo.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *inventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *inventoryRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(RestaurantScope(ctx)).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *inventoryRepository) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&item, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

// Update saves descriptive fields. Quantity is omitted so a stale copy can never overwrite stock.
func (r *inventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	return conn(ctx, r.db).Omit("quantity").Save(item).Error
}

func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Scopes(RestaurantScope(ctx)).Delete(&entity.InventoryItem{}, "id = ?", id).Error
}

func (r *inventoryRepository) List(ctx context.Context, params *domainRepo.InventoryFilterParams) ([]entity.InventoryItem, int64, error) {
	var items []entity.InventoryItem
	var total int64

	query := conn(ctx, r.db).Model(&entity.InventoryItem{}).Scopes(RestaurantScope(ctx))

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(params.Search))
	}
	if params.LowStockOnly {
		query = query.Where("reorder_level > 0 AND quantity <= reorder_level")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("name ASC").
		Find(&items).Error

	return items, total, err
}

func (r *inventoryRepository) AtomicIncrement(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := conn(ctx, r.db).Model(&entity.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("increment inventory %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inventoryRepository) AtomicDecrement(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	result := conn(ctx, r.db).Model(&entity.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("decrement inventory %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AtomicDecrementIfAvailable returns false when the row exists but holds less than amount
func (r *inventoryRepository) AtomicDecrementIfAvailable(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.InventoryItem{}).
		Where("id = ? AND quantity >= ?", id, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if result.Error != nil {
		return false, fmt.Errorf("decrement inventory %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	result := conn(ctx, r.db).Model(&entity.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("set inventory %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type inventoryTransactionRepository struct {
	db *gorm.DB
}

// NewInventoryTransactionRepository creates a new ledger repository
func NewInventoryTransactionRepository(db *gorm.DB) domainRepo.InventoryTransactionRepository {
	return &inventoryTransactionRepository{db: db}
}

func (r *inventoryTransactionRepository) Create(ctx context.Context, txn *entity.InventoryTransaction) error {
	return conn(ctx, r.db).Create(txn).Error
}

func (r *inventoryTransactionRepository) ListByItem(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) ([]entity.InventoryTransaction, int64, error) {
	var txns []entity.InventoryTransaction
	var total int64

	query := conn(ctx, r.db).Model(&entity.InventoryTransaction{}).
		Scopes(RestaurantScope(ctx)).
		Where("inventory_item_id = ?", itemID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&txns).Error

	return txns, total, err
}

func (r *inventoryTransactionRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.InventoryTransaction, error) {
	var txns []entity.InventoryTransaction
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}
