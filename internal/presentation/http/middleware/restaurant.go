package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// PublicRestaurantMiddleware resolves the restaurant from the :slug path
// parameter for the customer QR flow, which carries no token
func PublicRestaurantMiddleware(restaurantRepo repository.RestaurantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if slug == "" {
			response.BadRequest(c, "Restaurant is required")
			c.Abort()
			return
		}

		restaurant, err := restaurantRepo.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if restaurant == nil {
			response.NotFound(c, "Restaurant not found")
			c.Abort()
			return
		}

		c.Set("restaurant_id", restaurant.ID)
		c.Set("restaurant", restaurant)

		ctx := infraRepo.WithRestaurant(c.Request.Context(), restaurant.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRestaurant ensures a valid restaurant context exists
func RequireRestaurant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRestaurantID(c) == uuid.Nil {
			response.BadRequest(c, "Restaurant context required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetRestaurantID retrieves the restaurant ID from gin context
func GetRestaurantID(c *gin.Context) uuid.UUID {
	restaurantID, exists := c.Get("restaurant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := restaurantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
