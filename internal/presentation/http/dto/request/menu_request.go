package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeIngredientRequest is one recipe line. Leave inventory_item_id empty for untracked ingredients.
type RecipeIngredientRequest struct {
	InventoryItemID *uuid.UUID      `json:"inventory_item_id"`
	Name            string          `json:"name"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Unit            string          `json:"unit"`
}

// CreateMenuItemRequest represents a request to add a menu item
type CreateMenuItemRequest struct {
	Name               string                    `json:"name" binding:"required,max=255"`
	Description        string                    `json:"description"`
	Category           string                    `json:"category"`
	Price              float64                   `json:"price" binding:"min=0"`
	IsAvailable        *bool                     `json:"is_available"`
	PreparationMinutes int                       `json:"preparation_minutes" binding:"min=0"`
	Recipe             []RecipeIngredientRequest `json:"recipe"`
}

// SetRecipeRequest replaces a menu item's recipe
type SetRecipeRequest struct {
	Recipe []RecipeIngredientRequest `json:"recipe"`
}

// SetAvailabilityRequest toggles whether a menu item can be ordered
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
