package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"gorm.io/gorm"
)

type menuItemRepository struct {
	db *gorm.DB
}

// NewMenuItemRepository creates a new menu item repository
func NewMenuItemRepository(db *gorm.DB) domainRepo.MenuItemRepository {
	return &menuItemRepository{db: db}
}

func orderedRecipe(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *menuItemRepository) Create(ctx context.Context, item *entity.MenuItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *menuItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.MenuItem, error) {
	var item entity.MenuItem
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Preload("Recipe", orderedRecipe).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

// GetByIDs batch fetches menu items with recipes in one round trip per table
func (r *menuItemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Preload("Recipe", orderedRecipe).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

func (r *menuItemRepository) Update(ctx context.Context, item *entity.MenuItem) error {
	return conn(ctx, r.db).Omit("Recipe").Save(item).Error
}

func (r *menuItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Scopes(RestaurantScope(ctx)).Delete(&entity.MenuItem{}, "id = ?", id).Error
}

func (r *menuItemRepository) List(ctx context.Context, params *domainRepo.MenuFilterParams) ([]entity.MenuItem, int64, error) {
	var items []entity.MenuItem
	var total int64

	query := conn(ctx, r.db).Model(&entity.MenuItem{}).Scopes(RestaurantScope(ctx))

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(params.Search))
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Recipe", orderedRecipe).
		Order("category ASC, name ASC").
		Find(&items).Error

	return items, total, err
}

// ReplaceRecipe swaps the full ingredient list of a menu item
func (r *menuItemRepository) ReplaceRecipe(ctx context.Context, menuItemID uuid.UUID, recipe []entity.RecipeIngredient) error {
	db := conn(ctx, r.db)
	if err := db.Where("menu_item_id = ?", menuItemID).Delete(&entity.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(recipe) == 0 {
		return nil
	}
	for i := range recipe {
		recipe[i].MenuItemID = menuItemID
		recipe[i].Position = i
	}
	return db.Create(&recipe).Error
}

func (r *menuItemRepository) CountRecipeReferences(ctx context.Context, inventoryItemID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.RecipeIngredient{}).
		Joins("JOIN menu_items ON menu_items.id = recipe_ingredients.menu_item_id AND menu_items.deleted_at IS NULL").
		Where("recipe_ingredients.inventory_item_id = ?", inventoryItemID).
		Count(&count).Error
	return count, err
}
