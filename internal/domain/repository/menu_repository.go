package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// MenuItemRepository defines the interface for menu and recipe data operations
type MenuItemRepository interface {
	Create(ctx context.Context, item *entity.MenuItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.MenuItem, error)
	// GetByIDs returns the menu items with their recipes preloaded
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.MenuItem, error)
	Update(ctx context.Context, item *entity.MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *MenuFilterParams) ([]entity.MenuItem, int64, error)
	ReplaceRecipe(ctx context.Context, menuItemID uuid.UUID, recipe []entity.RecipeIngredient) error
	CountRecipeReferences(ctx context.Context, inventoryItemID uuid.UUID) (int64, error)
}

// MenuFilterParams contains filtering parameters for menu queries
type MenuFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Category      string
	AvailableOnly bool
}
