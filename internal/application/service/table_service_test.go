package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2031, time.March, 14, hour, minute, 0, 0, time.UTC)
}

func (f *fixture) reserve(t *testing.T, table *entity.Table, start, end time.Time) (*entity.Reservation, error) {
	t.Helper()
	return f.tables.CreateReservation(f.ctx, &CreateReservationInput{
		TableID:   table.ID,
		Customer:  entity.CustomerInfo{Name: "Otieno", Phone: "+254700000000"},
		PartySize: 4,
		StartTime: start,
		EndTime:   end,
	})
}

func TestReservation_OverlapIsRejected(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")

	_, err := f.reserve(t, table, at(10, 0), at(11, 0))
	require.NoError(t, err)

	_, err = f.reserve(t, table, at(10, 30), at(11, 30))
	assert.True(t, apperror.IsType(err, apperror.TypeConflict), "got %v", err)

	_, err = f.reserve(t, table, at(9, 0), at(12, 0))
	assert.True(t, apperror.IsType(err, apperror.TypeConflict), "enclosing window")
}

func TestReservation_TouchingWindowsAreAccepted(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")

	_, err := f.reserve(t, table, at(10, 0), at(11, 0))
	require.NoError(t, err)
	_, err = f.reserve(t, table, at(11, 0), at(12, 0))
	require.NoError(t, err)
	_, err = f.reserve(t, table, at(9, 0), at(10, 0))
	require.NoError(t, err)

	list, err := f.tables.ListReservations(f.ctx, table.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestReservation_CancelledWindowIsFree(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")

	booking, err := f.reserve(t, table, at(18, 0), at(20, 0))
	require.NoError(t, err)

	free, err := f.tables.IsAvailableAt(f.ctx, table.ID, at(19, 0), at(19, 30))
	require.NoError(t, err)
	assert.False(t, free)

	_, err = f.tables.UpdateReservationStatus(f.ctx, booking.ID, enum.ReservationCancelled)
	require.NoError(t, err)

	free, err = f.tables.IsAvailableAt(f.ctx, table.ID, at(19, 0), at(19, 30))
	require.NoError(t, err)
	assert.True(t, free)

	_, err = f.reserve(t, table, at(18, 30), at(19, 30))
	require.NoError(t, err)

	_, err = f.tables.UpdateReservationStatus(f.ctx, booking.ID, enum.ReservationSeated)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "cancelled is final")
}

func TestReservation_Validation(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")

	_, err := f.reserve(t, table, at(11, 0), at(10, 0))
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))

	_, err = f.tables.CreateReservation(f.ctx, &CreateReservationInput{TableID: table.ID, StartTime: at(10, 0), EndTime: at(11, 0)})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation), "customer name required")

	_, err = f.tables.IsAvailableAt(f.ctx, table.ID, at(10, 0), at(10, 0))
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestReservation_SeatingOpensAndCompletingEndsSession(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")
	booking, err := f.reserve(t, table, at(12, 0), at(13, 0))
	require.NoError(t, err)

	seated, err := f.tables.UpdateReservationStatus(f.ctx, booking.ID, enum.ReservationSeated)
	require.NoError(t, err)
	require.NotNil(t, seated.SessionID)

	occupied := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusOccupied, occupied.Status)
	assert.Equal(t, "Otieno", occupied.CurrentCustomer.Name)

	sessions, err := f.tables.ListActiveSessions(f.ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, enum.SessionSourceReservation, sessions[0].Source)

	_, err = f.tables.UpdateReservationStatus(f.ctx, booking.ID, enum.ReservationCompleted)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)
}

func TestCheckOut_RejectsActiveOrder(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	_, err := f.tables.CheckIn(f.ctx, &CheckInInput{TableID: table.ID, Source: enum.SessionSourceScan})
	require.NoError(t, err)
	order := f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	_, err = f.tables.CheckOut(f.ctx, table.ID, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	current := f.reloadTable(t, table.ID)
	require.NotNil(t, current.CurrentOrderID)
	assert.Equal(t, order.ID, *current.CurrentOrderID)

	sessions, err := f.tables.ListActiveSessions(f.ctx, table.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "the rejected checkout ended nothing")
}

func TestCheckOut_LastSessionFreesTable(t *testing.T) {
	f := newFixture(t, "0")
	table := f.table(t, "T1")

	first, err := f.tables.CheckIn(f.ctx, &CheckInInput{
		TableID:  table.ID,
		Customer: entity.CustomerInfo{Name: "Achieng"},
		Source:   enum.SessionSourceScan,
	})
	require.NoError(t, err)
	second, err := f.tables.CheckIn(f.ctx, &CheckInInput{TableID: table.ID, Source: enum.SessionSourceStaff})
	require.NoError(t, err)
	assert.Equal(t, 1, f.events.Count(event.TopicTableStatusChanged), "second check-in changes nothing")

	current, err := f.tables.CheckOut(f.ctx, table.ID, &first.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusOccupied, current.Status)

	_, err = f.tables.CheckOut(f.ctx, table.ID, &first.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound), "already ended")

	current, err = f.tables.CheckOut(f.ctx, table.ID, &second.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusAvailable, current.Status)
	assert.True(t, current.CurrentCustomer.IsZero())
	assert.Equal(t, 2, f.events.Count(event.TopicTableStatusChanged))
}

func TestSetStatus_GuardsCurrentOrder(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")
	f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	_, err := f.tables.SetStatus(f.ctx, table.ID, enum.TableStatusAvailable)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)
	_, err = f.tables.SetStatus(f.ctx, table.ID, enum.TableStatusMaintenance)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition))

	_, err = f.tables.SetStatus(f.ctx, table.ID, enum.TableStatus("broken"))
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))

	idle := f.table(t, "T2")
	_, err = f.tables.CheckIn(f.ctx, &CheckInInput{TableID: idle.ID})
	require.NoError(t, err)
	freed, err := f.tables.SetStatus(f.ctx, idle.ID, enum.TableStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusAvailable, freed.Status)
	sessions, err := f.tables.ListActiveSessions(f.ctx, idle.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = f.tables.SetStatus(f.ctx, idle.ID, enum.TableStatusMaintenance)
	require.NoError(t, err)
	_, err = f.tables.CheckIn(f.ctx, &CheckInInput{TableID: idle.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "maintenance blocks check-in")
}

func TestTable_NumbersAreUniqueAndDeletionIsGuarded(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	table := f.table(t, "T1")

	_, err := f.tables.CreateTable(f.ctx, &CreateTableInput{TableNumber: " T1 "})
	assert.True(t, apperror.IsType(err, apperror.TypeConflict), "got %v", err)

	f.dineIn(t, table, OrderItemInput{MenuItemID: tea.ID, Quantity: 1})
	err = f.tables.DeleteTable(f.ctx, table.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "active order: %v", err)

	booked := f.table(t, "T2")
	_, err = f.reserve(t, booked, time.Now().UTC().Add(time.Hour), time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	err = f.tables.DeleteTable(f.ctx, booked.ID)
	assert.Error(t, err, "future reservation")

	spare := f.table(t, "T3")
	require.NoError(t, f.tables.DeleteTable(f.ctx, spare.ID))
	_, err = f.tables.GetTable(f.ctx, spare.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))

	byNumber, err := f.tables.GetTableByNumber(f.ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, booked.ID, byNumber.ID)

	_, err = f.tables.GetTableByNumber(f.ctx, "T404")
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
	_, err = f.tables.GetTable(f.ctx, uuid.New())
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}
