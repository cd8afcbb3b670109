package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
)

// RestaurantRepository defines the interface for restaurant data operations
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *entity.Restaurant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Restaurant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Restaurant, error)
	Update(ctx context.Context, restaurant *entity.Restaurant) error
}
