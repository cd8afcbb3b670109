package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/internal/testutil"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextNumber_CountsPerRestaurantAndDay(t *testing.T) {
	db := testutil.NewDB(t)
	first, ctx := testutil.SeedRestaurant(t, db, "0")
	second, _ := testutil.SeedRestaurant(t, db, "0")
	orders := repository.NewOrderRepository(db)

	for want := int64(1); want <= 3; want++ {
		got, err := orders.NextNumber(ctx, first.ID, "2031-03-14")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := orders.NextNumber(ctx, first.ID, "2031-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "new day restarts")

	got, err = orders.NextNumber(ctx, second.ID, "2031-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "restaurants count independently")
}

func TestWithinTransaction_RollsBackAndJoinsOuter(t *testing.T) {
	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, "0")
	tx := repository.NewTxManager(db)
	tables := repository.NewTableRepository(db)
	boom := errors.New("boom")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, tables.Create(ctx, &entity.Table{RestaurantID: restaurant.ID, TableNumber: "T1"}))
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, tables.Create(ctx, &entity.Table{RestaurantID: restaurant.ID, TableNumber: "T2"}))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := tables.List(ctx, &domainRepo.TableFilterParams{Pagination: pagination.DefaultPagination()})
	require.NoError(t, err)
	assert.Zero(t, total, "inner failure rolls back the outer work too")
}

func TestRestaurantScope_IsolatesTenants(t *testing.T) {
	db := testutil.NewDB(t)
	mine, ctx := testutil.SeedRestaurant(t, db, "0")
	theirs, theirCtx := testutil.SeedRestaurant(t, db, "0")
	tables := repository.NewTableRepository(db)

	own := &entity.Table{RestaurantID: mine.ID, TableNumber: "T1"}
	require.NoError(t, tables.Create(ctx, own))
	require.NoError(t, tables.Create(theirCtx, &entity.Table{RestaurantID: theirs.ID, TableNumber: "T1"}))

	list, total, err := tables.List(ctx, &domainRepo.TableFilterParams{Pagination: pagination.DefaultPagination()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, own.ID, list[0].ID)

	found, err := tables.GetByID(theirCtx, own.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "other restaurants see nothing")

	found, err = tables.GetByID(context.Background(), own.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "no restaurant on the context matches no rows")
}

func TestMarkDeducted_ClaimsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, "0")
	orders := repository.NewOrderRepository(db)
	items := repository.NewOrderItemRepository(db)

	order := &entity.Order{RestaurantID: restaurant.ID, OrderNumber: "ORD-310314-0001", OrderType: enum.OrderTypeTakeaway}
	require.NoError(t, orders.Create(ctx, order))
	lines := []entity.OrderItem{
		{OrderID: order.ID, MenuItemID: uuid.New(), Name: "Tea", UnitPrice: 150, Quantity: 1},
		{OrderID: order.ID, MenuItemID: uuid.New(), Name: "Mandazi", UnitPrice: 50, Quantity: 4},
	}
	require.NoError(t, items.CreateBatch(ctx, lines))

	now := time.Now().UTC()
	claimed, err := items.MarkDeducted(ctx, []uuid.UUID{lines[0].ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claimed)

	claimed, err = items.MarkDeducted(ctx, []uuid.UUID{lines[0].ID, lines[1].ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claimed, "the first line was already claimed")

	reloaded, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	for _, item := range reloaded.Items {
		assert.NotNil(t, item.InventoryDeductedAt)
	}
}

func TestListKitchenQueue_PriorityThenAge(t *testing.T) {
	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, "0")
	orders := repository.NewOrderRepository(db)

	base := time.Now().UTC().Add(-time.Hour)
	seed := []struct {
		number   string
		priority enum.Priority
		status   enum.OrderStatus
		age      time.Duration
	}{
		{"A", enum.PriorityNormal, enum.OrderStatusPending, 0},
		{"B", enum.PriorityUrgent, enum.OrderStatusInProgress, time.Minute},
		{"C", enum.PriorityNormal, enum.OrderStatusReady, 2 * time.Minute},
		{"D", enum.PriorityUrgent, enum.OrderStatusServed, 3 * time.Minute},
		{"E", enum.PriorityHigh, enum.OrderStatusPending, 4 * time.Minute},
	}
	for _, s := range seed {
		require.NoError(t, orders.Create(ctx, &entity.Order{
			RestaurantID: restaurant.ID,
			OrderNumber:  s.number,
			OrderType:    enum.OrderTypeTakeaway,
			Priority:     s.priority,
			Status:       s.status,
			CreatedAt:    base.Add(s.age),
		}))
	}

	queue, err := orders.ListKitchenQueue(ctx)
	require.NoError(t, err)
	numbers := make([]string, len(queue))
	for i, o := range queue {
		numbers[i] = o.OrderNumber
	}
	assert.Equal(t, []string{"B", "E", "A", "C"}, numbers, "served orders leave the queue")
}

func TestFindOverlapping_IgnoresReleasedBookings(t *testing.T) {
	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, "0")
	reservations := repository.NewReservationRepository(db)
	tableID := uuid.New()
	start := time.Date(2031, time.March, 14, 19, 0, 0, 0, time.UTC)

	booked := &entity.Reservation{RestaurantID: restaurant.ID, TableID: tableID, StartTime: start, EndTime: start.Add(2 * time.Hour), Status: enum.ReservationConfirmed}
	released := &entity.Reservation{RestaurantID: restaurant.ID, TableID: tableID, StartTime: start, EndTime: start.Add(time.Hour), Status: enum.ReservationNoShow}
	require.NoError(t, reservations.Create(ctx, booked))
	require.NoError(t, reservations.Create(ctx, released))

	hits, err := reservations.FindOverlapping(ctx, tableID, start.Add(30*time.Minute), start.Add(45*time.Minute), nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, booked.ID, hits[0].ID)

	hits, err = reservations.FindOverlapping(ctx, tableID, start.Add(30*time.Minute), start.Add(45*time.Minute), &booked.ID)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = reservations.FindOverlapping(ctx, tableID, start.Add(2*time.Hour), start.Add(3*time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, hits, "windows touching at the end do not overlap")
}

func TestIdempotencyKeys_ScopedAndExpiring(t *testing.T) {
	db := testutil.NewDB(t)
	restaurant, ctx := testutil.SeedRestaurant(t, db, "0")
	keys := repository.NewIdempotencyRepository(db)

	require.NoError(t, keys.Create(ctx, &entity.IdempotencyKey{
		Key: "abc", RestaurantID: restaurant.ID, UserID: uuid.New(), Endpoint: "POST /api/v1/orders",
		ResponseCode: 201, ResponseBody: `{"ok":true}`, ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))
	require.NoError(t, keys.Create(ctx, &entity.IdempotencyKey{
		Key: "old", RestaurantID: restaurant.ID, UserID: uuid.New(), Endpoint: "POST /api/v1/orders",
		ResponseCode: 201, ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}))

	found, err := keys.GetByKey(ctx, "abc", restaurant.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 201, found.ResponseCode)

	found, err = keys.GetByKey(ctx, "abc", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, keys.DeleteExpired(ctx))
	found, err = keys.GetByKey(ctx, "old", restaurant.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
