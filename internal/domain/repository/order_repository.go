package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, order *entity.Order) error
	// GetByID loads the order with items and processing history
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// GetByIDForUpdate is GetByID with the order row locked for the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	// Update saves the order row only, associations are written by their own repositories
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	ListKitchenQueue(ctx context.Context) ([]entity.Order, error)
	// FindActiveByTable returns the oldest non-terminal order on the table other than excludeID
	FindActiveByTable(ctx context.Context, tableID uuid.UUID, excludeID *uuid.UUID) (*entity.Order, error)
	// NextNumber increments and returns the order counter for the restaurant and business date
	NextNumber(ctx context.Context, restaurantID uuid.UUID, businessDate string) (int64, error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	TableID    *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortOrder  string
}

// OrderItemRepository defines the interface for order line operations
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.OrderItem) error
	Update(ctx context.Context, item *entity.OrderItem) error
	// MarkDeducted stamps inventory_deducted_at on items not yet claimed and returns how many were claimed
	MarkDeducted(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
}

// OrderHistoryRepository defines the interface for the processing audit log
type OrderHistoryRepository interface {
	CreateBatch(ctx context.Context, entries []entity.OrderHistory) error
}
