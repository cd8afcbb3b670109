package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Table is a physical dining table. CurrentOrderID is a weak reference:
// it is set while a dine-in order is active and nulled when it ends.
type Table struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_tables_restaurant_number,where:deleted_at IS NULL" json:"restaurant_id"`
	TableNumber     string           `gorm:"size:20;not null;uniqueIndex:idx_tables_restaurant_number,where:deleted_at IS NULL" json:"table_number"`
	Capacity        int              `gorm:"default:4" json:"capacity"`
	Location        string           `gorm:"size:100" json:"location,omitempty"`
	Status          enum.TableStatus `gorm:"size:20;not null;default:'available';index" json:"status"`
	CurrentCustomer CustomerInfo     `gorm:"embedded;embeddedPrefix:customer_" json:"-"`
	CurrentOrderID  *uuid.UUID       `gorm:"type:uuid;index" json:"current_order_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

// MarshalJSON renders the customer snapshot only when present
func (t Table) MarshalJSON() ([]byte, error) {
	type Alias Table
	return json.Marshal(&struct {
		Alias
		CurrentCustomer *CustomerInfo `json:"current_customer,omitempty"`
	}{
		Alias:           Alias(t),
		CurrentCustomer: t.CurrentCustomer.Ptr(),
	})
}

// BeforeCreate generates a UUID before creating a new table
func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Table model
func (Table) TableName() string {
	return "tables"
}

// HasOrder reports whether the table currently points at an order
func (t *Table) HasOrder() bool {
	return t.CurrentOrderID != nil && *t.CurrentOrderID != uuid.Nil
}

// TableSession is one check-in/check-out cycle at a table, independent of orders
type TableSession struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	TableID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"table_id"`
	Source        enum.SessionSource `gorm:"size:20;not null" json:"source"`
	Customer      CustomerInfo       `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	ReservationID *uuid.UUID         `gorm:"type:uuid" json:"reservation_id,omitempty"`
	StartedAt     time.Time          `gorm:"not null" json:"started_at"`
	EndedAt       *time.Time         `gorm:"index" json:"ended_at,omitempty"`
}

// BeforeCreate generates a UUID before creating a new session
func (s *TableSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the TableSession model
func (TableSession) TableName() string {
	return "table_sessions"
}

func (s *TableSession) IsActive() bool {
	return s.EndedAt == nil
}

// Reservation books a table for the half-open window [StartTime, EndTime)
type Reservation struct {
	ID           uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID              `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	TableID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_reservations_window" json:"table_id"`
	Customer     CustomerInfo           `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	PartySize    int                    `gorm:"default:1" json:"party_size"`
	StartTime    time.Time              `gorm:"not null;index:idx_reservations_window" json:"start_time"`
	EndTime      time.Time              `gorm:"not null" json:"end_time"`
	Status       enum.ReservationStatus `gorm:"size:20;not null;default:'confirmed'" json:"status"`
	Notes        string                 `gorm:"type:text" json:"notes,omitempty"`
	SessionID    *uuid.UUID             `gorm:"type:uuid" json:"session_id,omitempty"`
	CreatedBy    *uuid.UUID             `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new reservation
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Reservation model
func (Reservation) TableName() string {
	return "reservations"
}

// Overlaps reports whether [start, end) intersects the reservation window
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}
