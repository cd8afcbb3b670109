package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_ComputesTotalsFromSnapshots(t *testing.T) {
	f := newFixture(t, "5")
	burger := f.dish(t, "Burger", 10)
	soda := f.dish(t, "Soda", 5)
	table := f.table(t, "T1")

	order := f.dineIn(t, table,
		OrderItemInput{MenuItemID: burger.ID, Quantity: 2},
		OrderItemInput{MenuItemID: soda.ID, Quantity: 1},
	)

	assert.Equal(t, int64(2500), order.SubTotal)
	assert.Equal(t, int64(125), order.TaxAmount)
	assert.Equal(t, int64(0), order.ServiceCharge)
	assert.Equal(t, int64(2625), order.TotalAmount)
	assert.Equal(t, enum.OrderStatusPending, order.Status)
	assert.Equal(t, enum.OrderPaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Burger", order.Items[0].Name)
	assert.Equal(t, int64(1000), order.Items[0].UnitPrice)

	// Later price changes never touch the snapshot
	burger.Price = 9900
	require.NoError(t, f.db.Save(burger).Error)
	reloaded, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), reloaded.Items[0].UnitPrice)
	assert.Equal(t, int64(2625), reloaded.TotalAmount)

	table = f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusOccupied, table.Status)
	require.NotNil(t, table.CurrentOrderID)
	assert.Equal(t, order.ID, *table.CurrentOrderID)
	assert.Equal(t, "Wanjiru", table.CurrentCustomer.Name)

	assert.Equal(t, 1, f.events.Count(event.TopicOrderCreated))
	assert.Equal(t, 1, f.events.Count(event.TopicTableStatusChanged))
}

func TestCreateOrder_NumbersAreSequentialPerDay(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)

	first, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	day := time.Now().UTC().Format("060102")
	assert.Equal(t, "ORD-"+day+"-0001", first.OrderNumber)
	assert.Equal(t, "ORD-"+day+"-0002", second.OrderNumber)
	assert.Nil(t, first.TableID)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	_, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{OrderType: enum.OrderTypeDineIn, TableID: &table.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation), "empty order: %v", err)

	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeDineIn,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation), "dine-in without table: %v", err)

	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeDineIn,
		TableID:   &table.ID,
		Items:     []OrderItemInput{{MenuItemID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound), "unknown menu item: %v", err)

	missing := uuid.New()
	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeDineIn,
		TableID:   &missing,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound), "unknown table: %v", err)

	_, err = f.tables.SetStatus(f.ctx, table.ID, enum.TableStatusMaintenance)
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeDineIn,
		TableID:   &table.ID,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "maintenance table: %v", err)

	result, err := f.orders.ListOrders(f.ctx, &repository.OrderFilterParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Items, "rejected orders must leave nothing behind")
}

func TestCreateOrder_UnavailableMenuItem(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	_, err := f.menu.SetAvailability(f.ctx, tea.ID, false)
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation), "got %v", err)
}

func TestCreateOrder_OtherRestaurantMenuItem(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)

	other := &entity.Restaurant{Name: "Elsewhere", Slug: "elsewhere"}
	require.NoError(t, f.db.Create(other).Error)
	otherCtx := infraRepo.WithRestaurant(context.Background(), other.ID)

	_, err := f.orders.CreateOrder(otherCtx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound), "got %v", err)
}

func TestUpdateOrderStatus_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")
	order := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	order, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusReady, "", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReady, order.Status)

	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusInProgress, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "backward move: %v", err)

	order, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusCompleted, "", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.NotNil(t, order.CompletedAt)

	for _, status := range []enum.OrderStatus{
		enum.OrderStatusPending, enum.OrderStatusInProgress, enum.OrderStatusReady,
		enum.OrderStatusServed, enum.OrderStatusCompleted, enum.OrderStatusCancelled,
	} {
		_, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, status, "", nil)
		assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "%s: %v", status, err)
	}

	_, err = f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}}, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition))
	_, err = f.orders.RemoveItem(f.ctx, order.ID, order.Items[0].ID, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition))

	reloaded, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, reloaded.Status)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	_, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatus("plated"), "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))

	_, err = f.orders.UpdateOrderStatus(f.ctx, uuid.New(), enum.OrderStatusReady, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestCancelOrder_OnlyFromPending(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")
	actor := uuid.New()

	order := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	cancelled, err := f.orders.CancelOrder(f.ctx, order.ID, "changed mind", &actor)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, actor, *cancelled.CancelledBy)
	assert.Equal(t, "changed mind", cancelled.CancellationReason)

	freed := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusAvailable, freed.Status)
	assert.Nil(t, freed.CurrentOrderID)
	assert.True(t, freed.CurrentCustomer.IsZero())

	started := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	_, err = f.orders.UpdateItemStatus(f.ctx, started.ID, started.Items[0].ID, enum.ItemStatusInProgress, nil)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(f.ctx, started.ID, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	// Cancelling through the status endpoint follows the same rule
	_, err = f.orders.UpdateOrderStatus(f.ctx, started.ID, enum.OrderStatusCancelled, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition))

	still := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusOccupied, still.Status)
	require.NotNil(t, still.CurrentOrderID)
	assert.Equal(t, started.ID, *still.CurrentOrderID)
}

func TestCompletedOrder_ReleasesTable(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	order := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	_, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusCompleted, "", nil)
	require.NoError(t, err)

	freed := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusAvailable, freed.Status)
	assert.Nil(t, freed.CurrentOrderID)
}

func TestCompletedOrder_KeepsTableOccupiedWhileSessionOpen(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	_, err := f.tables.CheckIn(f.ctx, &CheckInInput{TableID: table.ID, Source: enum.SessionSourceScan})
	require.NoError(t, err)

	order := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusCompleted, "", nil)
	require.NoError(t, err)

	current := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusOccupied, current.Status)
	assert.Nil(t, current.CurrentOrderID)

	_, err = f.tables.CheckOut(f.ctx, table.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)
}

func TestCompletedOrder_HandsTableToOtherActiveOrder(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	first := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	second := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 2})

	current := f.reloadTable(t, table.ID)
	require.NotNil(t, current.CurrentOrderID)
	assert.Equal(t, second.ID, *current.CurrentOrderID)

	_, err := f.orders.UpdateOrderStatus(f.ctx, second.ID, enum.OrderStatusCompleted, "", nil)
	require.NoError(t, err)

	current = f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusOccupied, current.Status)
	require.NotNil(t, current.CurrentOrderID)
	assert.Equal(t, first.ID, *current.CurrentOrderID)

	resolved, err := f.tables.ResolveCurrentOrder(f.ctx, table.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, first.ID, resolved.ID)
}

func TestItemStatus_CancelledItemAndAutoPromotion(t *testing.T) {
	f := newFixture(t, "0")
	burger := f.dish(t, "Burger", 10)
	fries := f.dish(t, "Fries", 4)
	shake := f.dish(t, "Shake", 6)
	table := f.table(t, "T1")

	order := f.dineIn(t, table,
		OrderItemInput{MenuItemID: burger.ID, Quantity: 1},
		OrderItemInput{MenuItemID: fries.ID, Quantity: 1},
		OrderItemInput{MenuItemID: shake.ID, Quantity: 1},
	)
	assert.Equal(t, int64(2000), order.TotalAmount)
	burgerLine, friesLine, shakeLine := order.Items[0].ID, order.Items[1].ID, order.Items[2].ID

	order, err := f.orders.RemoveItem(f.ctx, order.ID, shakeLine, "out of milk", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), order.SubTotal)
	assert.Equal(t, int64(1400), order.TotalAmount)
	removed := order.FindItem(shakeLine)
	require.NotNil(t, removed)
	assert.Equal(t, enum.ItemStatusCancelled, removed.Status)
	assert.Equal(t, "out of milk", removed.CancellationReason)
	assert.Len(t, order.Items, 3, "cancelled lines stay for audit")
	assert.Equal(t, enum.OrderStatusPending, order.Status)

	order, err = f.orders.UpdateItemStatus(f.ctx, order.ID, burgerLine, enum.ItemStatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusInProgress, order.Status)
	n := len(order.History)
	assert.Equal(t, "Burger marked in-progress", order.History[n-2].Note)
	assert.False(t, order.History[n-2].Auto)
	assert.Equal(t, "Preparation started", order.History[n-1].Note)
	assert.True(t, order.History[n-1].Auto)

	order, err = f.orders.UpdateItemStatus(f.ctx, order.ID, burgerLine, enum.ItemStatusReady, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusInProgress, order.Status, "fries still pending")

	order, err = f.orders.UpdateItemStatus(f.ctx, order.ID, friesLine, enum.ItemStatusReady, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReady, order.Status, "cancelled shake does not hold the order back")
	n = len(order.History)
	assert.Equal(t, "Fries marked ready", order.History[n-2].Note)
	assert.Equal(t, "All items ready", order.History[n-1].Note)
	assert.Equal(t, enum.OrderStatusReady, order.History[n-1].Status)

	_, err = f.orders.UpdateItemStatus(f.ctx, order.ID, burgerLine, enum.ItemStatusInProgress, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "backward item move")
	_, err = f.orders.UpdateItemStatus(f.ctx, order.ID, shakeLine, enum.ItemStatusReady, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "cancelled item")
	_, err = f.orders.UpdateItemStatus(f.ctx, order.ID, uuid.New(), enum.ItemStatusReady, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))

	persisted, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, historyNotes(order), historyNotes(persisted))
	for i, h := range persisted.History {
		assert.Equal(t, i+1, h.Sequence)
	}
}

func TestRemoveItem_ServedItemIsRejected(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	cake := f.dish(t, "Cake", 3)
	order := f.dineIn(t, f.table(t, "T1"),
		OrderItemInput{MenuItemID: tea.ID, Quantity: 1},
		OrderItemInput{MenuItemID: cake.ID, Quantity: 1},
	)

	order, err := f.orders.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.ItemStatusServed, nil)
	require.NoError(t, err)

	_, err = f.orders.RemoveItem(f.ctx, order.ID, order.Items[0].ID, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	order, err = f.orders.RemoveItem(f.ctx, order.ID, order.Items[1].ID, "", nil)
	require.NoError(t, err)
	_, err = f.orders.RemoveItem(f.ctx, order.ID, order.Items[1].ID, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "already cancelled")
}

func TestAddItems_DemotesServedOrder(t *testing.T) {
	f := newFixture(t, "10")
	burger := f.dish(t, "Burger", 10)
	chips := f.dish(t, "Chips", 3)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: burger.ID, Quantity: 1})

	order = f.advance(t, order, enum.ItemStatusServed)
	assert.Equal(t, enum.OrderStatusReady, order.Status)
	order, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	before := len(order.History)

	order, err = f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: chips.ID, Quantity: 2}}, nil)
	require.NoError(t, err)

	assert.Equal(t, enum.OrderStatusInProgress, order.Status)
	require.Len(t, order.History, before+2)
	assert.Equal(t, "Added 2x Chips", order.History[before].Note)
	assert.False(t, order.History[before].Auto)
	assert.Equal(t, "Returned to kitchen for added items", order.History[before+1].Note)
	assert.Equal(t, enum.OrderStatusInProgress, order.History[before+1].Status)

	assert.Equal(t, int64(1600), order.SubTotal)
	assert.Equal(t, int64(160), order.TaxAmount)
	assert.Equal(t, int64(1760), order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[1].Position)

	persisted, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusInProgress, persisted.Status)
	assert.Len(t, persisted.Items, 2)
}

func TestAddItems_PendingOrderKeepsStatus(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	order, err := f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300), order.TotalAmount)

	_, err = f.orders.AddItems(f.ctx, order.ID, nil, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
	_, err = f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: tea.ID, Quantity: 0}}, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestDeduction_ItemLevelThenOrderLevelBooksOnce(t *testing.T) {
	f := newFixture(t, "0")
	buns := f.stock(t, "Buns", "20")
	patties := f.stock(t, "Patties", "10")
	burger := f.dish(t, "Burger", 10, ingredient(buns, "1"), ingredient(patties, "1"))
	double := f.dish(t, "Double", 14, ingredient(buns, "1"), ingredient(patties, "2"))

	order := f.dineIn(t, f.table(t, "T1"),
		OrderItemInput{MenuItemID: burger.ID, Quantity: 2},
		OrderItemInput{MenuItemID: double.ID, Quantity: 1},
	)

	order, err := f.orders.UpdateItemStatus(f.ctx, order.ID, order.Items[0].ID, enum.ItemStatusReady, nil)
	require.NoError(t, err)
	assert.True(t, f.reloadStock(t, buns.ID).Quantity.Equal(dec("18")))
	assert.True(t, f.reloadStock(t, patties.ID).Quantity.Equal(dec("8")))

	// Serving the order books only the line not yet deducted
	order, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	assert.True(t, f.reloadStock(t, buns.ID).Quantity.Equal(dec("17")))
	assert.True(t, f.reloadStock(t, patties.ID).Quantity.Equal(dec("6")))

	// Later triggers find nothing left to claim
	_, err = f.orders.UpdateItemStatus(f.ctx, order.ID, order.Items[1].ID, enum.ItemStatusServed, nil)
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusCompleted, "", nil)
	require.NoError(t, err)
	assert.True(t, f.reloadStock(t, buns.ID).Quantity.Equal(dec("17")))
	assert.True(t, f.reloadStock(t, patties.ID).Quantity.Equal(dec("6")))

	ledger, err := f.txnRepo.ListByOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 4)
	for _, txn := range ledger {
		assert.Equal(t, enum.TransactionUsage, txn.Type)
		assert.Equal(t, enum.TransactionSourceOrder, txn.Source)
	}

	persisted, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	for _, item := range persisted.Items {
		assert.NotNil(t, item.InventoryDeductedAt, item.Name)
	}
}

func TestDeduction_CancelledItemsAreNeverBooked(t *testing.T) {
	f := newFixture(t, "0")
	milk := f.stock(t, "Milk", "5")
	shake := f.dish(t, "Shake", 6, ingredient(milk, "0.5"))
	tea := f.dish(t, "Tea", 1.5, ingredient(milk, "0.1"))

	order := f.dineIn(t, f.table(t, "T1"),
		OrderItemInput{MenuItemID: shake.ID, Quantity: 2},
		OrderItemInput{MenuItemID: tea.ID, Quantity: 1},
	)
	order, err := f.orders.RemoveItem(f.ctx, order.ID, order.Items[0].ID, "", nil)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	assert.True(t, f.reloadStock(t, milk.ID).Quantity.Equal(dec("4.9")))
}

func TestDeduction_FailureDoesNotBlockStatusChange(t *testing.T) {
	f := newFixture(t, "0")
	flour := f.stock(t, "Flour", "1")
	bread := f.dish(t, "Bread", 2, ingredient(flour, "1"))
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: bread.ID, Quantity: 1})

	// The stock row disappears after the recipe was written
	require.NoError(t, f.db.Unscoped().Delete(&entity.InventoryItem{}, "id = ?", flour.ID).Error)

	order, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusServed, order.Status)
}

func TestSetPriority(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")
	calm := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	rush := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	rush, err := f.orders.SetPriority(f.ctx, rush.ID, enum.PriorityUrgent, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.PriorityUrgent, rush.Priority)
	assert.True(t, strings.HasPrefix(rush.History[len(rush.History)-1].Note, "Priority changed"))

	queue, err := f.orders.ListKitchenQueue(f.ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, rush.ID, queue[0].ID)
	assert.Equal(t, calm.ID, queue[1].ID)

	_, err = f.orders.SetPriority(f.ctx, rush.ID, enum.Priority("asap"), nil)
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestOrderEventsArePublishedAfterCommit(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	before := f.events.Count(event.TopicOrderUpdated)

	_, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusInProgress, "", nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.events.Count(event.TopicOrderUpdated))

	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusPending, "", nil)
	require.Error(t, err)
	assert.Equal(t, before+1, f.events.Count(event.TopicOrderUpdated), "rolled back changes stay silent")
}

func TestCreateOrder_ConcurrentNumbersAreUnique(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)

	const n = 10
	var wg sync.WaitGroup
	orders := make([]*entity.Order, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], errs[i] = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
				OrderType: enum.OrderTypeTakeaway,
				Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	numbers := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		numbers[orders[i].OrderNumber] = true
	}
	assert.Len(t, numbers, n)

	day := time.Now().UTC().Format("060102")
	for seq := 1; seq <= n; seq++ {
		assert.True(t, numbers[fmt.Sprintf("ORD-%s-%04d", day, seq)], "missing sequence %d", seq)
	}
}

func TestCreateOrder_NumberFollowsRestaurantTimezone(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	require.NoError(t, f.db.Model(f.restaurant).Update("timezone", "Pacific/Kiritimati").Error)

	order, err := f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	loc, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)
	assert.Equal(t, "ORD-"+time.Now().In(loc).Format("060102")+"-0001", order.OrderNumber)
}

func TestGetOrderByNumber(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: tea.ID, Quantity: 2})

	found, err := f.orders.GetOrderByNumber(f.ctx, " "+strings.ToLower(order.OrderNumber)+" ")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)

	_, err = f.orders.GetOrderByNumber(f.ctx, "ORD-000101-9999")
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
	_, err = f.orders.GetOrderByNumber(f.ctx, "  ")
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestRemoveItem_LastActiveItemIsRejected(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	cake := f.dish(t, "Cake", 3)
	table := f.table(t, "T1")
	order := f.dineIn(t, table,
		OrderItemInput{MenuItemID: tea.ID, Quantity: 1},
		OrderItemInput{MenuItemID: cake.ID, Quantity: 1},
	)

	order, err := f.orders.RemoveItem(f.ctx, order.ID, order.Items[1].ID, "", nil)
	require.NoError(t, err)

	_, err = f.orders.RemoveItem(f.ctx, order.ID, order.Items[0].ID, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	open, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, open.ActiveItems(), 1)
	assert.Equal(t, int64(150), open.TotalAmount)

	cancelled, err := f.orders.CancelOrder(f.ctx, order.ID, "left early", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)
}
