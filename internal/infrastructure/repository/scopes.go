package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// RestaurantIDKey is the context key for the restaurant (tenant) ID
	RestaurantIDKey ctxKey = "restaurant_id"
	txKey           ctxKey = "gorm_tx"
)

// RestaurantScope returns a GORM scope that filters by restaurant.
// It should be applied to all queries for restaurant-owned entities.
func RestaurantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		restaurantID, ok := ctx.Value(RestaurantIDKey).(uuid.UUID)
		if !ok || restaurantID == uuid.Nil {
			// Fail-safe: no restaurant on the context means no rows
			return db.Where("1 = 0")
		}
		return db.Where("restaurant_id = ?", restaurantID)
	}
}

// WithRestaurant adds the restaurant ID to context
func WithRestaurant(ctx context.Context, restaurantID uuid.UUID) context.Context {
	return context.WithValue(ctx, RestaurantIDKey, restaurantID)
}

// GetRestaurantID extracts the restaurant ID from context
func GetRestaurantID(ctx context.Context) (uuid.UUID, bool) {
	restaurantID, ok := ctx.Value(RestaurantIDKey).(uuid.UUID)
	return restaurantID, ok && restaurantID != uuid.Nil
}

// conn returns the transaction carried on ctx, falling back to db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// likePattern builds a case-insensitive LIKE pattern that works on postgres and sqlite
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
