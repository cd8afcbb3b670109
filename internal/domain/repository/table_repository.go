package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// TableRepository defines the interface for table data operations
type TableRepository interface {
	Create(ctx context.Context, table *entity.Table) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Table, error)
	// GetByIDForUpdate locks the table row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Table, error)
	GetByNumber(ctx context.Context, tableNumber string) (*entity.Table, error)
	Update(ctx context.Context, table *entity.Table) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *TableFilterParams) ([]entity.Table, int64, error)
}

// TableFilterParams contains filtering parameters for table queries
type TableFilterParams struct {
	Pagination *pagination.PaginationParams
	Status     *enum.TableStatus
}

// TableSessionRepository defines the interface for table check-in sessions
type TableSessionRepository interface {
	Create(ctx context.Context, session *entity.TableSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TableSession, error)
	ListActive(ctx context.Context, tableID uuid.UUID) ([]entity.TableSession, error)
	CountActive(ctx context.Context, tableID uuid.UUID) (int64, error)
	End(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// ReservationRepository defines the interface for reservation data operations
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	// FindOverlapping returns blocking reservations whose window intersects [start, end)
	FindOverlapping(ctx context.Context, tableID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]entity.Reservation, error)
	ListByTable(ctx context.Context, tableID uuid.UUID, from, to *time.Time) ([]entity.Reservation, error)
	CountUpcoming(ctx context.Context, tableID uuid.UUID, after time.Time) (int64, error)
}
