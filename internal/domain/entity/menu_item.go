package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem represents a sellable dish or drink
type MenuItem struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	Description        string         `gorm:"type:text" json:"description,omitempty"`
	Category           string         `gorm:"size:100;index" json:"category,omitempty"`
	Price              int64          `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	IsAvailable        bool           `gorm:"default:true" json:"is_available"`
	PreparationMinutes int            `gorm:"default:0" json:"preparation_minutes"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Recipe []RecipeIngredient `gorm:"foreignKey:MenuItemID" json:"recipe,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (m MenuItem) MarshalJSON() ([]byte, error) {
	type Alias MenuItem
	return json.Marshal(&struct {
		Alias
		Price float64 `json:"price"`
	}{
		Alias: Alias(m),
		Price: CentsToAmount(m.Price),
	})
}

// BeforeCreate generates a UUID before creating a new menu item
func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// RecipeIngredient is one line of a menu item's recipe. InventoryItemID is nil
// for manual ingredients that are not tracked in stock.
type RecipeIngredient struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	MenuItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"menu_item_id"`
	Position        int             `gorm:"not null;default:0" json:"position"`
	InventoryItemID *uuid.UUID      `gorm:"type:uuid;index" json:"inventory_item_id,omitempty"`
	Name            string          `gorm:"size:255" json:"name,omitempty"`
	QuantityPerUnit decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity_per_unit"`
	Unit            string          `gorm:"size:20" json:"unit,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new recipe line
func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RecipeIngredient model
func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// Tracked reports whether the ingredient is deducted from stock
func (ri *RecipeIngredient) Tracked() bool {
	return ri.InventoryItemID != nil && *ri.InventoryItemID != uuid.Nil
}
