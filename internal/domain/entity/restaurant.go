package entity

import (
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Restaurant is the tenant that owns tables, menu, stock and orders
type Restaurant struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	Slug              string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Currency          string          `gorm:"size:3;default:'KES'" json:"currency"`
	TaxRate           decimal.Decimal `gorm:"type:numeric(5,2);default:0" json:"tax_rate"`
	ServiceChargeRate decimal.Decimal `gorm:"type:numeric(5,2);default:0" json:"service_charge_rate"`
	OrderNumberPrefix string          `gorm:"size:10" json:"order_number_prefix,omitempty"`
	Timezone          string          `gorm:"size:64;default:'UTC'" json:"timezone"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new restaurant
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Restaurant model
func (Restaurant) TableName() string {
	return "restaurants"
}

// NumberPrefix returns the restaurant's order number prefix or the fallback
func (r *Restaurant) NumberPrefix(fallback string) string {
	if r.OrderNumberPrefix != "" {
		return r.OrderNumberPrefix
	}
	return fallback
}

// Location is the zone the restaurant's business day follows. Unknown or
// empty zones fall back to UTC.
func (r *Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
