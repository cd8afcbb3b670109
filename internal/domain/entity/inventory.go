package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is a stock-keeping ingredient or supply.
// Quantity may dip below zero after order-driven deduction.
type InventoryItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_restaurant_name,where:deleted_at IS NULL" json:"restaurant_id"`
	Name         string          `gorm:"size:255;not null;uniqueIndex:idx_inventory_restaurant_name,where:deleted_at IS NULL" json:"name"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"quantity"`
	Unit         string          `gorm:"size:20;not null" json:"unit"`
	UnitPrice    int64           `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	ReorderLevel decimal.Decimal `gorm:"type:numeric(14,3);default:0" json:"reorder_level"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (i InventoryItem) MarshalJSON() ([]byte, error) {
	type Alias InventoryItem
	return json.Marshal(&struct {
		Alias
		UnitPrice  float64 `json:"unit_price"`
		IsLowStock bool    `json:"is_low_stock"`
	}{
		Alias:      Alias(i),
		UnitPrice:  CentsToAmount(i.UnitPrice),
		IsLowStock: i.IsLowStock(),
	})
}

// BeforeCreate generates a UUID before creating a new inventory item
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock reports whether quantity is at or below the reorder level
func (i *InventoryItem) IsLowStock() bool {
	return i.ReorderLevel.IsPositive() && i.Quantity.LessThanOrEqual(i.ReorderLevel)
}

// InventoryTransaction is an immutable ledger entry. Quantity is the amount
// moved and Type gives the direction; for adjustments it is new minus old.
type InventoryTransaction struct {
	ID               uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID     uuid.UUID              `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	InventoryItemID  uuid.UUID              `gorm:"type:uuid;not null;index" json:"inventory_item_id"`
	Type             enum.TransactionType   `gorm:"size:20;not null;index" json:"type"`
	Source           enum.TransactionSource `gorm:"size:20;not null;default:'manual'" json:"source"`
	Quantity         decimal.Decimal        `gorm:"type:numeric(14,3);not null" json:"quantity"`
	UnitPrice        int64                  `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TotalPrice       int64                  `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	PreviousQuantity decimal.Decimal        `gorm:"type:numeric(14,3)" json:"previous_quantity"`
	NewQuantity      decimal.Decimal        `gorm:"type:numeric(14,3)" json:"new_quantity"`
	OrderID          *uuid.UUID             `gorm:"type:uuid;index" json:"order_id,omitempty"`
	PerformedBy      *uuid.UUID             `gorm:"type:uuid" json:"performed_by,omitempty"`
	Note             string                 `gorm:"type:text" json:"note,omitempty"`
	CreatedAt        time.Time              `gorm:"index" json:"created_at"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (t InventoryTransaction) MarshalJSON() ([]byte, error) {
	type Alias InventoryTransaction
	return json.Marshal(&struct {
		Alias
		UnitPrice  float64 `json:"unit_price"`
		TotalPrice float64 `json:"total_price"`
	}{
		Alias:      Alias(t),
		UnitPrice:  CentsToAmount(t.UnitPrice),
		TotalPrice: CentsToAmount(t.TotalPrice),
	})
}

// BeforeCreate generates a UUID before creating a new ledger entry
func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InventoryTransaction model
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
