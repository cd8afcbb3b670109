package request

import (
	"time"

	"github.com/google/uuid"
)

// CreateTableRequest represents a request to add a table
type CreateTableRequest struct {
	TableNumber string `json:"table_number" binding:"required,max=20"`
	Capacity    int    `json:"capacity" binding:"min=0"`
	Location    string `json:"location"`
}

// SetTableStatusRequest sets a table's status directly
type SetTableStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available reserved occupied maintenance"`
}

// CheckInRequest opens a session at a table
type CheckInRequest struct {
	Customer *CustomerRequest `json:"customer"`
}

// CheckOutRequest ends one session, or all of them when SessionID is empty
type CheckOutRequest struct {
	SessionID *uuid.UUID `json:"session_id"`
}

// CreateReservationRequest books a table for a time window
type CreateReservationRequest struct {
	Customer  CustomerRequest `json:"customer" binding:"required"`
	PartySize int             `json:"party_size" binding:"min=0"`
	StartTime time.Time       `json:"start_time" binding:"required"`
	EndTime   time.Time       `json:"end_time" binding:"required"`
	Notes     string          `json:"notes"`
}

// UpdateReservationStatusRequest moves a reservation along its lifecycle
type UpdateReservationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=seated completed no-show cancelled"`
}
