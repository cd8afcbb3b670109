package request

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInventoryItemRequest represents a request to add a stock item
type CreateInventoryItemRequest struct {
	Name            string          `json:"name" binding:"required,max=255"`
	Unit            string          `json:"unit" binding:"required,max=20"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	UnitPrice       float64         `json:"unit_price" binding:"min=0"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
}

// UpdateInventoryItemRequest edits descriptive fields of a stock item
type UpdateInventoryItemRequest struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	UnitPrice    *float64         `json:"unit_price"`
	ReorderLevel *decimal.Decimal `json:"reorder_level"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
}

// InventoryTransactionRequest records a manual stock movement.
// For adjustments Quantity is the counted level, not the difference.
type InventoryTransactionRequest struct {
	Type      string          `json:"type" binding:"required,oneof=purchase usage wastage return adjustment"`
	Quantity  decimal.Decimal `json:"quantity"`
	Note      string          `json:"note"`
	UnitPrice *float64        `json:"unit_price"`
}
