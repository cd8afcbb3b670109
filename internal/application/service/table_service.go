package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// TableService tracks table occupancy, check-in sessions and reservations
type TableService struct {
	tx              repository.TxManager
	tableRepo       repository.TableRepository
	sessionRepo     repository.TableSessionRepository
	reservationRepo repository.ReservationRepository
	orderRepo       repository.OrderRepository
	events          event.Sink
	log             zerolog.Logger
}

// NewTableService creates a new table service
func NewTableService(
	tx repository.TxManager,
	tableRepo repository.TableRepository,
	sessionRepo repository.TableSessionRepository,
	reservationRepo repository.ReservationRepository,
	orderRepo repository.OrderRepository,
	events event.Sink,
	log zerolog.Logger,
) *TableService {
	if events == nil {
		events = event.NopSink{}
	}
	return &TableService{
		tx:              tx,
		tableRepo:       tableRepo,
		sessionRepo:     sessionRepo,
		reservationRepo: reservationRepo,
		orderRepo:       orderRepo,
		events:          events,
		log:             log,
	}
}

// CreateTableInput represents the create table input
type CreateTableInput struct {
	TableNumber string
	Capacity    int
	Location    string
}

// CreateTable adds a table. Table numbers are unique per restaurant.
func (s *TableService) CreateTable(ctx context.Context, input *CreateTableInput) (*entity.Table, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	number := strings.TrimSpace(input.TableNumber)
	if number == "" {
		return nil, apperror.NewFieldError("table_number", "Table number is required")
	}
	if input.Capacity < 0 {
		return nil, apperror.NewFieldError("capacity", "Capacity cannot be negative")
	}

	existing, err := s.tableRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Table " + number + " already exists")
	}

	capacity := input.Capacity
	if capacity == 0 {
		capacity = 4
	}

	table := &entity.Table{
		RestaurantID: restaurantID,
		TableNumber:  number,
		Capacity:     capacity,
		Location:     strings.TrimSpace(input.Location),
		Status:       enum.TableStatusAvailable,
	}
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// GetTable returns a table by ID
func (s *TableService) GetTable(ctx context.Context, id uuid.UUID) (*entity.Table, error) {
	table, err := s.tableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table")
	}
	return table, nil
}

// GetTableByNumber returns a table by its number, used by the QR scan flow
func (s *TableService) GetTableByNumber(ctx context.Context, number string) (*entity.Table, error) {
	table, err := s.tableRepo.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table")
	}
	return table, nil
}

// ListTables lists tables with an optional status filter
func (s *TableService) ListTables(ctx context.Context, params *repository.TableFilterParams) (*pagination.PaginatedResult[entity.Table], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	tables, total, err := s.tableRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(tables, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// DeleteTable soft deletes a table with no active order and no upcoming reservation
func (s *TableService) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		table, err := s.tableRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if table == nil {
			return apperror.NewNotFoundError("Table")
		}

		active, err := s.orderRepo.FindActiveByTable(ctx, table.ID, nil)
		if err != nil {
			return err
		}
		if active != nil {
			return apperror.NewInvalidStateTransitionError("Table %s has an active order", table.TableNumber)
		}

		upcoming, err := s.reservationRepo.CountUpcoming(ctx, table.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if upcoming > 0 {
			return apperror.NewInvalidStateTransitionError("Table %s has upcoming reservations", table.TableNumber)
		}

		return s.tableRepo.Delete(ctx, table.ID)
	})
}

// ResolveCurrentOrder returns the active order the table points at, or nil
func (s *TableService) ResolveCurrentOrder(ctx context.Context, tableID uuid.UUID) (*entity.Order, error) {
	table, err := s.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !table.HasOrder() {
		return nil, nil
	}
	order, err := s.orderRepo.GetByID(ctx, *table.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.Status.IsTerminal() {
		return nil, nil
	}
	return order, nil
}

// CheckInInput represents a scan or staff check-in
type CheckInInput struct {
	TableID  uuid.UUID
	Customer entity.CustomerInfo
	Source   enum.SessionSource
}

// CheckIn opens a session at the table and marks it occupied
func (s *TableService) CheckIn(ctx context.Context, input *CheckInInput) (*entity.TableSession, error) {
	var batch event.Batch
	var session *entity.TableSession

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.openSession(ctx, input.TableID, input.Customer, input.Source, nil, &batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(s.events)
	return session, nil
}

func (s *TableService) openSession(ctx context.Context, tableID uuid.UUID, customer entity.CustomerInfo, source enum.SessionSource, reservationID *uuid.UUID, batch *event.Batch) (*entity.TableSession, error) {
	table, err := s.tableRepo.GetByIDForUpdate(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table")
	}
	if table.Status == enum.TableStatusMaintenance {
		return nil, apperror.NewInvalidStateTransitionError("Table %s is under maintenance", table.TableNumber)
	}
	if source == "" {
		source = enum.SessionSourceScan
	}

	session := &entity.TableSession{
		RestaurantID:  table.RestaurantID,
		TableID:       table.ID,
		Source:        source,
		Customer:      customer,
		ReservationID: reservationID,
		StartedAt:     time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	previous := table.Status
	table.Status = enum.TableStatusOccupied
	if table.CurrentCustomer.IsZero() && !customer.IsZero() {
		table.CurrentCustomer = customer
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		return nil, err
	}
	if previous != table.Status {
		batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
	}
	return session, nil
}

// CheckOut ends one session, or every active session when sessionID is nil.
// It refuses while the table still has an order that is not completed or cancelled.
// The table becomes available once the last session has ended.
func (s *TableService) CheckOut(ctx context.Context, tableID uuid.UUID, sessionID *uuid.UUID) (*entity.Table, error) {
	var batch event.Batch
	var table *entity.Table

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		table, err = s.tableRepo.GetByIDForUpdate(ctx, tableID)
		if err != nil {
			return err
		}
		if table == nil {
			return apperror.NewNotFoundError("Table")
		}

		active, err := s.orderRepo.FindActiveByTable(ctx, table.ID, nil)
		if err != nil {
			return err
		}
		if active != nil {
			return apperror.NewInvalidStateTransitionError("Table %s has an active order %s", table.TableNumber, active.OrderNumber)
		}

		sessions, err := s.sessionRepo.ListActive(ctx, table.ID)
		if err != nil {
			return err
		}
		toEnd := make([]uuid.UUID, 0, len(sessions))
		for _, sess := range sessions {
			if sessionID == nil || sess.ID == *sessionID {
				toEnd = append(toEnd, sess.ID)
			}
		}
		if sessionID != nil && len(toEnd) == 0 {
			return apperror.NewNotFoundError("Active session")
		}
		if err := s.sessionRepo.End(ctx, toEnd, time.Now().UTC()); err != nil {
			return err
		}

		previous := table.Status
		table.CurrentOrderID = nil
		if len(sessions)-len(toEnd) == 0 && table.Status == enum.TableStatusOccupied {
			table.Status = enum.TableStatusAvailable
			table.CurrentCustomer = entity.CustomerInfo{}
		}
		if err := s.tableRepo.Update(ctx, table); err != nil {
			return err
		}
		if previous != table.Status {
			batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(s.events)
	return table, nil
}

// SetStatus sets a table's status directly. A table holding an active order
// cannot be made available or put under maintenance. Making a table available
// ends its open sessions.
func (s *TableService) SetStatus(ctx context.Context, tableID uuid.UUID, status enum.TableStatus) (*entity.Table, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Unknown table status")
	}

	var batch event.Batch
	var table *entity.Table

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		table, err = s.tableRepo.GetByIDForUpdate(ctx, tableID)
		if err != nil {
			return err
		}
		if table == nil {
			return apperror.NewNotFoundError("Table")
		}

		if status == enum.TableStatusAvailable || status == enum.TableStatusMaintenance {
			if table.HasOrder() {
				return apperror.NewInvalidStateTransitionError("Table %s still has a current order", table.TableNumber)
			}
			active, err := s.orderRepo.FindActiveByTable(ctx, table.ID, nil)
			if err != nil {
				return err
			}
			if active != nil {
				return apperror.NewInvalidStateTransitionError("Table %s has an active order %s", table.TableNumber, active.OrderNumber)
			}
		}

		if status == enum.TableStatusAvailable {
			sessions, err := s.sessionRepo.ListActive(ctx, table.ID)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, len(sessions))
			for i := range sessions {
				ids[i] = sessions[i].ID
			}
			if err := s.sessionRepo.End(ctx, ids, time.Now().UTC()); err != nil {
				return err
			}
			table.CurrentCustomer = entity.CustomerInfo{}
		}

		previous := table.Status
		table.Status = status
		if err := s.tableRepo.Update(ctx, table); err != nil {
			return err
		}
		if previous != status {
			batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(s.events)
	return table, nil
}

// AttachOrder points the table at a new dine-in order and marks it occupied.
// It must run inside the caller's transaction.
func (s *TableService) AttachOrder(ctx context.Context, tableID, orderID uuid.UUID, customer entity.CustomerInfo, batch *event.Batch) (*entity.Table, error) {
	table, err := s.tableRepo.GetByIDForUpdate(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table")
	}
	if table.Status == enum.TableStatusMaintenance {
		return nil, apperror.NewInvalidStateTransitionError("Table %s is under maintenance", table.TableNumber)
	}

	previous := table.Status
	id := orderID
	table.CurrentOrderID = &id
	table.Status = enum.TableStatusOccupied
	if table.CurrentCustomer.IsZero() && !customer.IsZero() {
		table.CurrentCustomer = customer
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		return nil, err
	}
	if previous != table.Status {
		batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
	}
	return table, nil
}

// ReleaseOrder runs when an order completes or is cancelled. The table's
// current order is cleared if it was this one; another active order on the
// same table takes its place. With no active order and no open session the
// table becomes available. It must run inside the caller's transaction.
func (s *TableService) ReleaseOrder(ctx context.Context, tableID, orderID uuid.UUID, batch *event.Batch) (*entity.Table, error) {
	table, err := s.tableRepo.GetByIDForUpdate(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		// Table was removed, nothing to release
		return nil, nil
	}

	previous := table.Status
	if table.HasOrder() && *table.CurrentOrderID == orderID {
		table.CurrentOrderID = nil
	}

	other, err := s.orderRepo.FindActiveByTable(ctx, table.ID, &orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case other != nil:
		if !table.HasOrder() {
			id := other.ID
			table.CurrentOrderID = &id
		}
	case table.HasOrder():
		// Points at an order that is still active, leave it
	default:
		sessions, err := s.sessionRepo.CountActive(ctx, table.ID)
		if err != nil {
			return nil, err
		}
		if sessions == 0 && table.Status == enum.TableStatusOccupied {
			table.Status = enum.TableStatusAvailable
			table.CurrentCustomer = entity.CustomerInfo{}
		}
	}

	if err := s.tableRepo.Update(ctx, table); err != nil {
		return nil, err
	}
	if previous != table.Status {
		batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
	}
	return table, nil
}

// IsAvailableAt reports whether no blocking reservation intersects [start, end)
func (s *TableService) IsAvailableAt(ctx context.Context, tableID uuid.UUID, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, apperror.NewFieldError("end_time", "End time must be after start time")
	}
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return false, err
	}
	overlapping, err := s.reservationRepo.FindOverlapping(ctx, tableID, start.UTC(), end.UTC(), nil)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

// CreateReservationInput represents the create reservation input
type CreateReservationInput struct {
	TableID   uuid.UUID
	Customer  entity.CustomerInfo
	PartySize int
	StartTime time.Time
	EndTime   time.Time
	Notes     string
	CreatedBy *uuid.UUID
}

// CreateReservation books a table. Windows are half-open, so touching bookings are allowed.
func (s *TableService) CreateReservation(ctx context.Context, input *CreateReservationInput) (*entity.Reservation, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Customer.Name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customer.name", Message: "Customer name is required"})
	}
	if !input.EndTime.After(input.StartTime) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "end_time", Message: "End time must be after start time"})
	}
	if input.PartySize < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "party_size", Message: "Party size cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	partySize := input.PartySize
	if partySize == 0 {
		partySize = 1
	}

	reservation := &entity.Reservation{
		RestaurantID: restaurantID,
		TableID:      input.TableID,
		Customer:     input.Customer,
		PartySize:    partySize,
		StartTime:    input.StartTime.UTC(),
		EndTime:      input.EndTime.UTC(),
		Status:       enum.ReservationConfirmed,
		Notes:        input.Notes,
		CreatedBy:    input.CreatedBy,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Locking the table serializes bookings for it
		table, err := s.tableRepo.GetByIDForUpdate(ctx, input.TableID)
		if err != nil {
			return err
		}
		if table == nil {
			return apperror.NewNotFoundError("Table")
		}
		if table.Status == enum.TableStatusMaintenance {
			return apperror.NewInvalidStateTransitionError("Table %s is under maintenance", table.TableNumber)
		}

		overlapping, err := s.reservationRepo.FindOverlapping(ctx, table.ID, reservation.StartTime, reservation.EndTime, nil)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperror.NewConflictError("Table " + table.TableNumber + " is already reserved for part of that time")
		}

		return s.reservationRepo.Create(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// UpdateReservationStatus moves a reservation along confirmed → seated → completed,
// or confirmed → cancelled/no-show. Seating opens a table session, completing ends it.
func (s *TableService) UpdateReservationStatus(ctx context.Context, reservationID uuid.UUID, status enum.ReservationStatus) (*entity.Reservation, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Unknown reservation status")
	}

	var batch event.Batch
	var reservation *entity.Reservation

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reservation, err = s.reservationRepo.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return apperror.NewNotFoundError("Reservation")
		}
		if !reservation.Status.CanMoveTo(status) {
			return apperror.NewInvalidStateTransitionError("Reservation cannot move from %s to %s", reservation.Status, status)
		}

		switch status {
		case enum.ReservationSeated:
			session, err := s.openSession(ctx, reservation.TableID, reservation.Customer, enum.SessionSourceReservation, &reservation.ID, &batch)
			if err != nil {
				return err
			}
			reservation.SessionID = &session.ID
		case enum.ReservationCompleted:
			if reservation.SessionID != nil {
				if err := s.sessionRepo.End(ctx, []uuid.UUID{*reservation.SessionID}, time.Now().UTC()); err != nil {
					return err
				}
				if err := s.releaseIfIdle(ctx, reservation.TableID, &batch); err != nil {
					return err
				}
			}
		}

		reservation.Status = status
		return s.reservationRepo.Update(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(s.events)
	return reservation, nil
}

// releaseIfIdle frees an occupied table that has no active order and no open session
func (s *TableService) releaseIfIdle(ctx context.Context, tableID uuid.UUID, batch *event.Batch) error {
	table, err := s.tableRepo.GetByIDForUpdate(ctx, tableID)
	if err != nil || table == nil {
		return err
	}
	if table.Status != enum.TableStatusOccupied || table.HasOrder() {
		return nil
	}
	active, err := s.orderRepo.FindActiveByTable(ctx, table.ID, nil)
	if err != nil || active != nil {
		return err
	}
	sessions, err := s.sessionRepo.CountActive(ctx, table.ID)
	if err != nil || sessions > 0 {
		return err
	}

	table.Status = enum.TableStatusAvailable
	table.CurrentCustomer = entity.CustomerInfo{}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		return err
	}
	batch.Add(event.TopicTableStatusChanged, table.RestaurantID, table)
	return nil
}

// ListReservations lists reservations of a table intersecting the optional window
func (s *TableService) ListReservations(ctx context.Context, tableID uuid.UUID, from, to *time.Time) ([]entity.Reservation, error) {
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.reservationRepo.ListByTable(ctx, tableID, from, to)
}

// ListActiveSessions returns the open check-in sessions of a table
func (s *TableService) ListActiveSessions(ctx context.Context, tableID uuid.UUID) ([]entity.TableSession, error) {
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListActive(ctx, tableID)
}
