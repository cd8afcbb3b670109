package service

import (
	"context"
	"time"

	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// DashboardService provides the manager's overview of the floor, the kitchen and sales
type DashboardService struct {
	orderRepo     repository.OrderRepository
	tableRepo     repository.TableRepository
	inventoryRepo repository.InventoryRepository
	analyticsRepo repository.AnalyticsRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	orderRepo repository.OrderRepository,
	tableRepo repository.TableRepository,
	inventoryRepo repository.InventoryRepository,
	analyticsRepo repository.AnalyticsRepository,
) *DashboardService {
	return &DashboardService{
		orderRepo:     orderRepo,
		tableRepo:     tableRepo,
		inventoryRepo: inventoryRepo,
		analyticsRepo: analyticsRepo,
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	OrdersToday       int64                `json:"orders_today"`
	PendingOrders     int64                `json:"pending_orders"`
	InProgressOrders  int64                `json:"in_progress_orders"`
	ReadyOrders       int64                `json:"ready_orders"`
	RevenueToday      float64              `json:"revenue_today"`
	MonthlyRevenue    float64              `json:"monthly_revenue"`
	OccupiedTables    int64                `json:"occupied_tables"`
	TotalTables       int64                `json:"total_tables"`
	LowStockCount     int64                `json:"low_stock_count"`
	DailySalesData    []DailySalesPoint    `json:"daily_sales_data"`
	CategorySalesData []CategorySalesPoint `json:"category_sales_data"`
	TopMenuItems      []TopMenuItemPoint   `json:"top_menu_items"`
}

// DailySalesPoint represents a daily sales data point
type DailySalesPoint struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count"`
}

// CategorySalesPoint represents sales by menu category
type CategorySalesPoint struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// TopMenuItemPoint represents one of the best sellers
type TopMenuItemPoint struct {
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

func (s *DashboardService) countOrders(ctx context.Context, status enum.OrderStatus) (int64, error) {
	_, count, err := s.orderRepo.List(ctx, &repository.OrderFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 1},
		Status:     &status,
	})
	return count, err
}

// GetDashboardStats returns dashboard statistics for the restaurant on ctx
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var err error
	if stats.OrdersToday, err = s.analyticsRepo.CountOrdersSince(ctx, startOfDay); err != nil {
		return nil, err
	}
	if stats.PendingOrders, err = s.countOrders(ctx, enum.OrderStatusPending); err != nil {
		return nil, err
	}
	if stats.InProgressOrders, err = s.countOrders(ctx, enum.OrderStatusInProgress); err != nil {
		return nil, err
	}
	if stats.ReadyOrders, err = s.countOrders(ctx, enum.OrderStatusReady); err != nil {
		return nil, err
	}

	revenueToday, err := s.analyticsRepo.GetRevenueSince(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	stats.RevenueToday = entity.CentsToAmount(revenueToday)

	monthly, err := s.analyticsRepo.GetRevenueSince(ctx, startOfMonth)
	if err != nil {
		return nil, err
	}
	stats.MonthlyRevenue = entity.CentsToAmount(monthly)

	// Tables
	one := &pagination.PaginationParams{Page: 1, PerPage: 1}
	if _, stats.TotalTables, err = s.tableRepo.List(ctx, &repository.TableFilterParams{Pagination: one}); err != nil {
		return nil, err
	}
	occupied := enum.TableStatusOccupied
	if _, stats.OccupiedTables, err = s.tableRepo.List(ctx, &repository.TableFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 1},
		Status:     &occupied,
	}); err != nil {
		return nil, err
	}

	// Low stock items
	if _, stats.LowStockCount, err = s.inventoryRepo.List(ctx, &repository.InventoryFilterParams{
		Pagination:   &pagination.PaginationParams{Page: 1, PerPage: 1},
		LowStockOnly: true,
	}); err != nil {
		return nil, err
	}

	// Daily sales for the last 7 days
	daily, err := s.analyticsRepo.GetDailySales(ctx, 7)
	if err != nil {
		return nil, err
	}
	stats.DailySalesData = make([]DailySalesPoint, 0, len(daily))
	for _, d := range daily {
		stats.DailySalesData = append(stats.DailySalesData, DailySalesPoint{
			Date:       d.Date.Format("Jan 02"),
			Revenue:    entity.CentsToAmount(d.Revenue),
			OrderCount: d.OrderCount,
		})
	}

	categories, err := s.analyticsRepo.GetSalesByCategory(ctx, startOfMonth)
	if err != nil {
		return nil, err
	}
	stats.CategorySalesData = make([]CategorySalesPoint, 0, len(categories))
	for _, cat := range categories {
		stats.CategorySalesData = append(stats.CategorySalesData, CategorySalesPoint{
			Category:   cat.Category,
			Amount:     entity.CentsToAmount(cat.TotalSales),
			Percentage: cat.Percentage,
		})
	}

	top, err := s.analyticsRepo.GetTopMenuItems(ctx, startOfMonth, 5)
	if err != nil {
		return nil, err
	}
	stats.TopMenuItems = make([]TopMenuItemPoint, 0, len(top))
	for _, item := range top {
		stats.TopMenuItems = append(stats.TopMenuItems, TopMenuItemPoint{
			Name:         item.Name,
			QuantitySold: item.QuantitySold,
			Revenue:      entity.CentsToAmount(item.Revenue),
		})
	}

	return stats, nil
}
