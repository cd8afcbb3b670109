package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tableside-api/internal/presentation/http/middleware"
)

// RestaurantHandler handles the caller's restaurant settings
type RestaurantHandler struct {
	restaurantService *service.RestaurantService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurantService *service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService}
}

// GetCurrent returns the restaurant the caller works for
func (h *RestaurantHandler) GetCurrent(c *gin.Context) {
	restaurant, err := h.restaurantService.GetRestaurant(c.Request.Context(), middleware.GetRestaurantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Restaurant retrieved successfully", restaurant)
}

// UpdateCurrent edits tax, service charge, numbering and timezone settings
func (h *RestaurantHandler) UpdateCurrent(c *gin.Context) {
	var req request.UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	restaurant, err := h.restaurantService.UpdateRestaurant(c.Request.Context(), middleware.GetRestaurantID(c), &service.UpdateRestaurantInput{
		Name:              req.Name,
		Currency:          req.Currency,
		TaxRate:           req.TaxRate,
		ServiceChargeRate: req.ServiceChargeRate,
		OrderNumberPrefix: req.OrderNumberPrefix,
		Timezone:          req.Timezone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Restaurant updated successfully", restaurant)
}
