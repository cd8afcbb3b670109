package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Payment is a single settlement attempt against an order
type Payment struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID       uuid.UUID               `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	OrderID            uuid.UUID               `gorm:"type:uuid;not null;index" json:"order_id"`
	TransactionID      string                  `gorm:"size:50;uniqueIndex;not null" json:"transaction_id"`
	Method             enum.PaymentMethod      `gorm:"size:20;not null" json:"method"`
	Amount             int64                   `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	AmountReceived     int64                   `gorm:"default:0" json:"-"`
	ChangeGiven        int64                   `gorm:"default:0" json:"-"`
	Status             enum.PaymentState       `gorm:"size:20;not null;default:'pending';index" json:"status"`
	VerificationStatus enum.VerificationStatus `gorm:"size:20;not null;default:'none'" json:"verification_status"`
	ProofReference     string                  `gorm:"size:500" json:"proof_reference,omitempty"`
	Notes              string                  `gorm:"type:text" json:"notes,omitempty"`
	VerificationNotes  string                  `gorm:"type:text" json:"verification_notes,omitempty"`
	FailureReason      string                  `gorm:"type:text" json:"failure_reason,omitempty"`
	ReceivedBy         *uuid.UUID              `gorm:"type:uuid" json:"received_by,omitempty"`
	VerifiedBy         *uuid.UUID              `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time              `json:"verified_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (p Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Alias
		Amount         float64 `json:"amount"`
		AmountReceived float64 `json:"amount_received"`
		ChangeGiven    float64 `json:"change_given"`
	}{
		Alias:          Alias(p),
		Amount:         CentsToAmount(p.Amount),
		AmountReceived: CentsToAmount(p.AmountReceived),
		ChangeGiven:    CentsToAmount(p.ChangeGiven),
	})
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
