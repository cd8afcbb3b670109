package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// MenuService handles menu items and their recipes
type MenuService struct {
	tx            repository.TxManager
	menuRepo      repository.MenuItemRepository
	inventoryRepo repository.InventoryRepository
}

// NewMenuService creates a new menu service
func NewMenuService(
	tx repository.TxManager,
	menuRepo repository.MenuItemRepository,
	inventoryRepo repository.InventoryRepository,
) *MenuService {
	return &MenuService{
		tx:            tx,
		menuRepo:      menuRepo,
		inventoryRepo: inventoryRepo,
	}
}

// RecipeIngredientInput is one recipe line. InventoryItemID nil means a manual ingredient.
type RecipeIngredientInput struct {
	InventoryItemID *uuid.UUID
	Name            string
	QuantityPerUnit decimal.Decimal
	Unit            string
}

// CreateMenuItemInput represents the create menu item input
type CreateMenuItemInput struct {
	Name               string
	Description        string
	Category           string
	Price              float64
	IsAvailable        *bool
	PreparationMinutes int
	Recipe             []RecipeIngredientInput
}

// CreateMenuItem creates a menu item and its recipe
func (s *MenuService) CreateMenuItem(ctx context.Context, input *CreateMenuItemInput) (*entity.MenuItem, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if input.Price < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "price", Message: "Price cannot be negative"})
	}
	if input.PreparationMinutes < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "preparation_minutes", Message: "Preparation time cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}

	item := &entity.MenuItem{
		RestaurantID:       restaurantID,
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Category:           strings.TrimSpace(input.Category),
		Price:              entity.AmountToCents(input.Price),
		IsAvailable:        available,
		PreparationMinutes: input.PreparationMinutes,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		recipe, err := s.buildRecipe(ctx, input.Recipe)
		if err != nil {
			return err
		}
		if err := s.menuRepo.Create(ctx, item); err != nil {
			return err
		}
		// gorm writes the bool default when false, so persist availability explicitly
		if !available {
			item.IsAvailable = false
			if err := s.menuRepo.Update(ctx, item); err != nil {
				return err
			}
		}
		if err := s.menuRepo.ReplaceRecipe(ctx, item.ID, recipe); err != nil {
			return err
		}
		item.Recipe = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// SetRecipe replaces the recipe of a menu item
func (s *MenuService) SetRecipe(ctx context.Context, menuItemID uuid.UUID, lines []RecipeIngredientInput) (*entity.MenuItem, error) {
	var item *entity.MenuItem
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.menuRepo.GetByID(ctx, menuItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFoundError("Menu item")
		}
		recipe, err := s.buildRecipe(ctx, lines)
		if err != nil {
			return err
		}
		if err := s.menuRepo.ReplaceRecipe(ctx, item.ID, recipe); err != nil {
			return err
		}
		item.Recipe = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// buildRecipe validates recipe lines and checks tracked ingredients belong to the restaurant
func (s *MenuService) buildRecipe(ctx context.Context, lines []RecipeIngredientInput) ([]entity.RecipeIngredient, error) {
	recipe := make([]entity.RecipeIngredient, 0, len(lines))
	for i, line := range lines {
		if !line.QuantityPerUnit.IsPositive() {
			return nil, apperror.NewFieldError("recipe", "Ingredient quantity must be greater than zero")
		}
		ingredient := entity.RecipeIngredient{
			Position:        i,
			Name:            strings.TrimSpace(line.Name),
			QuantityPerUnit: line.QuantityPerUnit,
			Unit:            line.Unit,
		}
		if line.InventoryItemID != nil && *line.InventoryItemID != uuid.Nil {
			stock, err := s.inventoryRepo.GetByID(ctx, *line.InventoryItemID)
			if err != nil {
				return nil, err
			}
			if stock == nil {
				return nil, apperror.NewNotFoundError("Inventory item")
			}
			id := stock.ID
			ingredient.InventoryItemID = &id
			if ingredient.Name == "" {
				ingredient.Name = stock.Name
			}
			if ingredient.Unit == "" {
				ingredient.Unit = stock.Unit
			}
		} else if ingredient.Name == "" {
			return nil, apperror.NewFieldError("recipe", "Manual ingredients need a name")
		}
		recipe = append(recipe, ingredient)
	}
	return recipe, nil
}

// GetMenuItem returns a menu item with its recipe
func (s *MenuService) GetMenuItem(ctx context.Context, id uuid.UUID) (*entity.MenuItem, error) {
	item, err := s.menuRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Menu item")
	}
	return item, nil
}

// ListMenuItems lists menu items
func (s *MenuService) ListMenuItems(ctx context.Context, params *repository.MenuFilterParams) (*pagination.PaginatedResult[entity.MenuItem], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	items, total, err := s.menuRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(items, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// SetAvailability toggles whether a menu item can be ordered
func (s *MenuService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*entity.MenuItem, error) {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = available
	if err := s.menuRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
