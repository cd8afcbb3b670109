package entity

import "strings"

// CustomerInfo is a denormalized snapshot of who is ordering or seated.
// It is embedded into orders, tables, sessions and reservations.
type CustomerInfo struct {
	Name  string `gorm:"size:255" json:"name,omitempty"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
}

func (c CustomerInfo) IsZero() bool {
	return strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == ""
}

// Ptr returns nil for an empty snapshot so JSON renders it as absent
func (c CustomerInfo) Ptr() *CustomerInfo {
	if c.IsZero() {
		return nil
	}
	return &c
}
