package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tableside-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tableRepository struct {
	db *gorm.DB
}

// NewTableRepository creates a new table repository
func NewTableRepository(db *gorm.DB) domainRepo.TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Create(ctx context.Context, table *entity.Table) error {
	return conn(ctx, r.db).Create(table).Error
}

func (r *tableRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Table, error) {
	var table entity.Table
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&table, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &table, err
}

func (r *tableRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Table, error) {
	var table entity.Table
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(RestaurantScope(ctx)).
		First(&table, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &table, err
}

func (r *tableRepository) GetByNumber(ctx context.Context, tableNumber string) (*entity.Table, error) {
	var table entity.Table
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&table, "table_number = ?", tableNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &table, err
}

func (r *tableRepository) Update(ctx context.Context, table *entity.Table) error {
	return conn(ctx, r.db).Save(table).Error
}

func (r *tableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Scopes(RestaurantScope(ctx)).Delete(&entity.Table{}, "id = ?", id).Error
}

func (r *tableRepository) List(ctx context.Context, params *domainRepo.TableFilterParams) ([]entity.Table, int64, error) {
	var tables []entity.Table
	var total int64

	query := conn(ctx, r.db).Model(&entity.Table{}).Scopes(RestaurantScope(ctx))
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("table_number ASC").
		Find(&tables).Error

	return tables, total, err
}

type tableSessionRepository struct {
	db *gorm.DB
}

// NewTableSessionRepository creates a new table session repository
func NewTableSessionRepository(db *gorm.DB) domainRepo.TableSessionRepository {
	return &tableSessionRepository{db: db}
}

func (r *tableSessionRepository) Create(ctx context.Context, session *entity.TableSession) error {
	return conn(ctx, r.db).Create(session).Error
}

func (r *tableSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TableSession, error) {
	var session entity.TableSession
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *tableSessionRepository) ListActive(ctx context.Context, tableID uuid.UUID) ([]entity.TableSession, error) {
	var sessions []entity.TableSession
	err := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("table_id = ? AND ended_at IS NULL", tableID).
		Order("started_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *tableSessionRepository) CountActive(ctx context.Context, tableID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.TableSession{}).
		Scopes(RestaurantScope(ctx)).
		Where("table_id = ? AND ended_at IS NULL", tableID).
		Count(&count).Error
	return count, err
}

func (r *tableSessionRepository) End(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db).Model(&entity.TableSession{}).
		Where("id IN ? AND ended_at IS NULL", ids).
		Update("ended_at", at).Error
}

type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) domainRepo.ReservationRepository {
	return &reservationRepository{db: db}
}

func blockingReservationStatuses() []enum.ReservationStatus {
	return []enum.ReservationStatus{enum.ReservationConfirmed, enum.ReservationSeated, enum.ReservationCompleted}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	return conn(ctx, r.db).Create(reservation).Error
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).First(&reservation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &reservation, err
}

func (r *reservationRepository) Update(ctx context.Context, reservation *entity.Reservation) error {
	return conn(ctx, r.db).Save(reservation).Error
}

// FindOverlapping uses half-open comparison: start_time < end AND end_time > start
func (r *reservationRepository) FindOverlapping(ctx context.Context, tableID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	query := conn(ctx, r.db).
		Scopes(RestaurantScope(ctx)).
		Where("table_id = ?", tableID).
		Where("status IN ?", blockingReservationStatuses()).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Order("start_time ASC").Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) ListByTable(ctx context.Context, tableID uuid.UUID, from, to *time.Time) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	query := conn(ctx, r.db).Scopes(RestaurantScope(ctx)).Where("table_id = ?", tableID)
	if from != nil {
		query = query.Where("end_time > ?", *from)
	}
	if to != nil {
		query = query.Where("start_time < ?", *to)
	}
	err := query.Order("start_time ASC").Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) CountUpcoming(ctx context.Context, tableID uuid.UUID, after time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Reservation{}).
		Scopes(RestaurantScope(ctx)).
		Where("table_id = ? AND status = ? AND end_time > ?", tableID, enum.ReservationConfirmed, after).
		Count(&count).Error
	return count, err
}
