package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// MenuHandler handles menu and recipe HTTP requests
type MenuHandler struct {
	menuService *service.MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

func recipeInputs(reqs []request.RecipeIngredientRequest) []service.RecipeIngredientInput {
	lines := make([]service.RecipeIngredientInput, len(reqs))
	for i, r := range reqs {
		lines[i] = service.RecipeIngredientInput{
			InventoryItemID: r.InventoryItemID,
			Name:            r.Name,
			QuantityPerUnit: r.QuantityPerUnit,
			Unit:            r.Unit,
		}
	}
	return lines
}

// List handles listing menu items
func (h *MenuHandler) List(c *gin.Context) {
	params := &repository.MenuFilterParams{
		Pagination:    paginationFromQuery(c),
		Search:        c.Query("search"),
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	}

	result, err := h.menuService.ListMenuItems(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Menu items retrieved successfully", result)
}

// Create handles creating a menu item
func (h *MenuHandler) Create(c *gin.Context) {
	var req request.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.menuService.CreateMenuItem(c.Request.Context(), &service.CreateMenuItemInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Price:              req.Price,
		IsAvailable:        req.IsAvailable,
		PreparationMinutes: req.PreparationMinutes,
		Recipe:             recipeInputs(req.Recipe),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Menu item created successfully", item)
}

// Get handles getting a single menu item
func (h *MenuHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid menu item ID")
		return
	}

	item, err := h.menuService.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Menu item retrieved successfully", item)
}

// SetRecipe replaces a menu item's recipe
func (h *MenuHandler) SetRecipe(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid menu item ID")
		return
	}

	var req request.SetRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.menuService.SetRecipe(c.Request.Context(), id, recipeInputs(req.Recipe))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Recipe updated successfully", item)
}

// SetAvailability toggles whether an item can be ordered
func (h *MenuHandler) SetAvailability(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid menu item ID")
		return
	}

	var req request.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.menuService.SetAvailability(c.Request.Context(), id, *req.IsAvailable)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Menu item availability updated", item)
}
