package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TopMenuItemResult represents a menu item's sales performance
type TopMenuItemResult struct {
	MenuItemID   uuid.UUID
	Name         string
	QuantitySold int
	Revenue      int64 // cents
}

// CategorySalesResult represents sales aggregated by menu category
type CategorySalesResult struct {
	Category   string
	TotalSales int64 // cents
	OrderCount int
	Percentage float64
}

// DailySalesResult represents sales data for a single day
type DailySalesResult struct {
	Date       time.Time
	Revenue    int64 // cents
	OrderCount int
}

// AnalyticsRepository defines aggregation queries over completed orders of the restaurant on ctx
type AnalyticsRepository interface {
	// GetTopMenuItems returns the best selling menu items by revenue
	GetTopMenuItems(ctx context.Context, since time.Time, limit int) ([]TopMenuItemResult, error)

	// GetSalesByCategory returns sales aggregated by menu category with percentages
	GetSalesByCategory(ctx context.Context, since time.Time) ([]CategorySalesResult, error)

	// GetDailySales returns one point per day for the last N days, oldest first
	GetDailySales(ctx context.Context, days int) ([]DailySalesResult, error)

	// GetRevenueSince sums order totals completed at or after since
	GetRevenueSince(ctx context.Context, since time.Time) (int64, error)

	// CountOrdersSince counts non-cancelled orders created at or after since
	CountOrdersSince(ctx context.Context, since time.Time) (int64, error)
}
