package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"gorm.io/gorm"
)

// User represents a staff member of a restaurant
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID      `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string         `gorm:"size:255" json:"-"`
	Role         enum.StaffRole `gorm:"size:20;not null;default:'waiter'" json:"role"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// GetPermissions returns the permission names granted by the user's role
func (u *User) GetPermissions() []string {
	return u.Role.Permissions()
}
