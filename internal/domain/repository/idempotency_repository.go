package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key scoped to a restaurant
	GetByKey(ctx context.Context, key string, restaurantID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired idempotency keys
	DeleteExpired(ctx context.Context) error
}
