package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InventoryRepository defines the interface for stock item data operations.
// Quantity changes go through the atomic helpers, never through Update.
type InventoryRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error)
	GetByName(ctx context.Context, name string) (*entity.InventoryItem, error)
	Update(ctx context.Context, item *entity.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *InventoryFilterParams) ([]entity.InventoryItem, int64, error)

	// AtomicIncrement adds delta to quantity in a single statement
	AtomicIncrement(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// AtomicDecrement subtracts amount unconditionally and may leave quantity negative
	AtomicDecrement(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// AtomicDecrementIfAvailable subtracts amount only if quantity >= amount
	AtomicDecrementIfAvailable(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
}

// InventoryFilterParams contains filtering parameters for inventory queries
type InventoryFilterParams struct {
	Pagination   *pagination.PaginationParams
	Search       string
	LowStockOnly bool
}

// InventoryTransactionRepository defines the interface for the append-only stock ledger
type InventoryTransactionRepository interface {
	Create(ctx context.Context, txn *entity.InventoryTransaction) error
	ListByItem(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) ([]entity.InventoryTransaction, int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.InventoryTransaction, error)
}
