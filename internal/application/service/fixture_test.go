package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	ctx        context.Context
	restaurant *entity.Restaurant
	events     *testutil.RecordingSink

	txnRepo     repository.InventoryTransactionRepository
	tableRepo   repository.TableRepository
	paymentRepo repository.PaymentRepository

	inventory *InventoryService
	menu      *MenuService
	tables    *TableService
	orders    *OrderService
	payments  *PaymentService
}

// newFixture wires every service over a fresh database. Deductions run
// synchronously so tests can assert on stock right after a status change.
func newFixture(t *testing.T, taxRate string) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, taxRate)
	events := &testutil.RecordingSink{}
	log := zerolog.Nop()

	tx := infraRepo.NewTxManager(db)
	orderRepo := infraRepo.NewOrderRepository(db)
	menuRepo := infraRepo.NewMenuItemRepository(db)
	inventoryRepo := infraRepo.NewInventoryRepository(db)
	txnRepo := infraRepo.NewInventoryTransactionRepository(db)
	tableRepo := infraRepo.NewTableRepository(db)
	paymentRepo := infraRepo.NewPaymentRepository(db)

	inventory := NewInventoryService(tx, inventoryRepo, txnRepo, menuRepo, events, log)
	tables := NewTableService(tx, tableRepo, infraRepo.NewTableSessionRepository(db), infraRepo.NewReservationRepository(db), orderRepo, events, log)
	orders := NewOrderService(
		tx, orderRepo,
		infraRepo.NewOrderItemRepository(db),
		infraRepo.NewOrderHistoryRepository(db),
		menuRepo,
		infraRepo.NewRestaurantRepository(db),
		tables,
		SyncDeductionDispatcher{Inventory: inventory},
		events, "ORD", log,
	)

	return &fixture{
		db:          db,
		ctx:         ctx,
		restaurant:  restaurant,
		events:      events,
		txnRepo:     txnRepo,
		tableRepo:   tableRepo,
		paymentRepo: paymentRepo,
		inventory:   inventory,
		menu:        NewMenuService(tx, menuRepo, inventoryRepo),
		tables:      tables,
		orders:      orders,
		payments:    NewPaymentService(tx, paymentRepo, orderRepo, orders, events, log),
	}
}

func (f *fixture) stock(t *testing.T, name, qty string) *entity.InventoryItem {
	t.Helper()
	item, err := f.inventory.CreateItem(f.ctx, &CreateInventoryItemInput{
		Name:            name,
		InitialQuantity: decimal.RequireFromString(qty),
		Unit:            "pcs",
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) dish(t *testing.T, name string, price float64, recipe ...RecipeIngredientInput) *entity.MenuItem {
	t.Helper()
	item, err := f.menu.CreateMenuItem(f.ctx, &CreateMenuItemInput{
		Name:     name,
		Category: "Mains",
		Price:    price,
		Recipe:   recipe,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) table(t *testing.T, number string) *entity.Table {
	t.Helper()
	table, err := f.tables.CreateTable(f.ctx, &CreateTableInput{TableNumber: number})
	require.NoError(t, err)
	return table
}

func (f *fixture) reloadTable(t *testing.T, id uuid.UUID) *entity.Table {
	t.Helper()
	table, err := f.tables.GetTable(f.ctx, id)
	require.NoError(t, err)
	return table
}

func (f *fixture) reloadStock(t *testing.T, id uuid.UUID) *entity.InventoryItem {
	t.Helper()
	item, err := f.inventory.GetItem(f.ctx, id)
	require.NoError(t, err)
	return item
}

func (f *fixture) dineIn(t *testing.T, table *entity.Table, items ...OrderItemInput) *entity.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeDineIn,
		TableID:   &table.ID,
		Customer:  entity.CustomerInfo{Name: "Wanjiru"},
		Items:     items,
	})
	require.NoError(t, err)
	return order
}

// advance walks every active item of the order up to status
func (f *fixture) advance(t *testing.T, order *entity.Order, status enum.ItemStatus) *entity.Order {
	t.Helper()
	target, _ := status.Rank()
	for _, item := range order.ActiveItems() {
		for next := item.Status; ; {
			rank, _ := next.Rank()
			if rank >= target {
				break
			}
			next = nextItemStatus(next)
			var err error
			order, err = f.orders.UpdateItemStatus(f.ctx, order.ID, item.ID, next, nil)
			require.NoError(t, err)
		}
	}
	return order
}

func nextItemStatus(s enum.ItemStatus) enum.ItemStatus {
	switch s {
	case enum.ItemStatusPending:
		return enum.ItemStatusInProgress
	case enum.ItemStatusInProgress:
		return enum.ItemStatusReady
	default:
		return enum.ItemStatusServed
	}
}

func ingredient(item *entity.InventoryItem, qty string) RecipeIngredientInput {
	id := item.ID
	return RecipeIngredientInput{InventoryItemID: &id, QuantityPerUnit: decimal.RequireFromString(qty), Unit: item.Unit}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func historyNotes(order *entity.Order) []string {
	notes := make([]string, len(order.History))
	for i, h := range order.History {
		notes[i] = h.Note
	}
	return notes
}
