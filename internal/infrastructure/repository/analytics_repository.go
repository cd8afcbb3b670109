package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) GetTopMenuItems(ctx context.Context, since time.Time, limit int) ([]domainRepo.TopMenuItemResult, error) {
	restaurantID, ok := GetRestaurantID(ctx)
	if !ok {
		return nil, nil
	}

	var results []domainRepo.TopMenuItemResult
	err := conn(ctx, r.db).Raw(`
		SELECT
			oi.menu_item_id AS menu_item_id,
			MAX(oi.name) AS name,
			COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
			COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ? AND o.status = ? AND o.completed_at >= ? AND oi.status <> ?
		GROUP BY oi.menu_item_id
		ORDER BY revenue DESC
		LIMIT ?
	`, restaurantID, enum.OrderStatusCompleted, since, enum.ItemStatusCancelled, limit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("top menu items: %w", err)
	}
	return results, nil
}

func (r *analyticsRepository) GetSalesByCategory(ctx context.Context, since time.Time) ([]domainRepo.CategorySalesResult, error) {
	restaurantID, ok := GetRestaurantID(ctx)
	if !ok {
		return nil, nil
	}

	var results []domainRepo.CategorySalesResult
	err := conn(ctx, r.db).Raw(`
		SELECT
			COALESCE(NULLIF(m.category, ''), 'Uncategorized') AS category,
			COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS total_sales,
			COUNT(DISTINCT o.id) AS order_count
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE o.restaurant_id = ? AND o.status = ? AND o.completed_at >= ? AND oi.status <> ?
		GROUP BY COALESCE(NULLIF(m.category, ''), 'Uncategorized')
		ORDER BY total_sales DESC
	`, restaurantID, enum.OrderStatusCompleted, since, enum.ItemStatusCancelled).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("sales by category: %w", err)
	}

	var total int64
	for _, res := range results {
		total += res.TotalSales
	}
	for i := range results {
		if total > 0 {
			results[i].Percentage = float64(results[i].TotalSales) / float64(total) * 100
		}
	}
	return results, nil
}

func (r *analyticsRepository) GetDailySales(ctx context.Context, days int) ([]domainRepo.DailySalesResult, error) {
	results := make([]domainRepo.DailySalesResult, 0, days)
	now := time.Now().UTC()

	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		endOfDay := startOfDay.Add(24 * time.Hour)

		var row struct {
			Revenue    int64
			OrderCount int
		}
		err := conn(ctx, r.db).Model(&entity.Order{}).
			Scopes(RestaurantScope(ctx)).
			Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS order_count").
			Where("status = ? AND completed_at >= ? AND completed_at < ?", enum.OrderStatusCompleted, startOfDay, endOfDay).
			Scan(&row).Error
		if err != nil {
			return nil, fmt.Errorf("daily sales: %w", err)
		}

		results = append(results, domainRepo.DailySalesResult{
			Date:       startOfDay,
			Revenue:    row.Revenue,
			OrderCount: row.OrderCount,
		})
	}

	return results, nil
}

func (r *analyticsRepository) GetRevenueSince(ctx context.Context, since time.Time) (int64, error) {
	var revenue int64
	err := conn(ctx, r.db).Model(&entity.Order{}).
		Scopes(RestaurantScope(ctx)).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ? AND completed_at >= ?", enum.OrderStatusCompleted, since).
		Scan(&revenue).Error
	return revenue, err
}

func (r *analyticsRepository) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Order{}).
		Scopes(RestaurantScope(ctx)).
		Where("status <> ? AND created_at >= ?", enum.OrderStatusCancelled, since).
		Count(&count).Error
	return count, err
}
