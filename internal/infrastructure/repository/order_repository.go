package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func preloadHistory(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return conn(ctx, r.db).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Preload("Items", preloadItems).
		Preload("History", preloadHistory).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(RestaurantScope(ctx)).
		Preload("Items", preloadItems).
		Preload("History", preloadHistory).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Preload("Items", preloadItems).
		First(&order, "order_number = ?", orderNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(order).Error
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(RestaurantScope(ctx))

	if params.Search != "" {
		pattern := likePattern(params.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.TableID != nil {
		query = query.Where("table_id = ?", *params.TableID)
	}

	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortOrder := "DESC"
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items", preloadItems).
		Order("created_at " + sortOrder).
		Find(&orders).Error

	return orders, total, err
}

// ListKitchenQueue returns orders still being prepared, highest priority first then oldest first
func (r *orderRepository) ListKitchenQueue(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("status IN ?", []enum.OrderStatus{enum.OrderStatusPending, enum.OrderStatusInProgress, enum.OrderStatusReady}).
		Preload("Items", preloadItems).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Priority.Weight() > orders[j].Priority.Weight()
	})
	return orders, nil
}

func (r *orderRepository) FindActiveByTable(ctx context.Context, tableID uuid.UUID, excludeID *uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	query := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("table_id = ? AND status IN ?", tableID, enum.ActiveOrderStatuses())
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Order("created_at ASC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

// NextNumber bumps the (restaurant, day) counter. The UPDATE takes a row lock
// so concurrent creators serialize; the first creator of the day inserts the row.
func (r *orderRepository) NextNumber(ctx context.Context, restaurantID uuid.UUID, businessDate string) (int64, error) {
	db := conn(ctx, r.db)

	for attempt := 0; attempt < 3; attempt++ {
		result := db.Model(&entity.OrderSequence{}).
			Where("restaurant_id = ? AND business_date = ?", restaurantID, businessDate).
			Update("last_value", gorm.Expr("last_value + 1"))
		if result.Error != nil {
			return 0, fmt.Errorf("increment order sequence: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			seq := entity.OrderSequence{
				RestaurantID: restaurantID,
				BusinessDate: businessDate,
				LastValue:    1,
				UpdatedAt:    time.Now(),
			}
			inserted := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq)
			if inserted.Error != nil {
				return 0, fmt.Errorf("create order sequence: %w", inserted.Error)
			}
			if inserted.RowsAffected == 1 {
				return 1, nil
			}
			// Lost the insert race, the row exists now
			continue
		}

		var seq entity.OrderSequence
		if err := db.Where("restaurant_id = ? AND business_date = ?", restaurantID, businessDate).
			First(&seq).Error; err != nil {
			return 0, fmt.Errorf("read order sequence: %w", err)
		}
		return seq.LastValue, nil
	}

	return 0, errors.New("could not allocate order number")
}

type orderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository creates a new order item repository
func NewOrderItemRepository(db *gorm.DB) domainRepo.OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) CreateBatch(ctx context.Context, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&items).Error
}

func (r *orderItemRepository) Update(ctx context.Context, item *entity.OrderItem) error {
	return conn(ctx, r.db).Save(item).Error
}

func (r *orderItemRepository) MarkDeducted(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := conn(ctx, r.db).Model(&entity.OrderItem{}).
		Where("id IN ? AND inventory_deducted_at IS NULL", ids).
		Update("inventory_deducted_at", at)
	return result.RowsAffected, result.Error
}

type orderHistoryRepository struct {
	db *gorm.DB
}

// NewOrderHistoryRepository creates a new order history repository
func NewOrderHistoryRepository(db *gorm.DB) domainRepo.OrderHistoryRepository {
	return &orderHistoryRepository{db: db}
}

func (r *orderHistoryRepository) CreateBatch(ctx context.Context, entries []entity.OrderHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&entries).Error
}
