package request

import "github.com/sangkips/tableside-api/internal/domain/entity"

// CustomerRequest is the optional customer snapshot sent with orders, check-ins and bookings
type CustomerRequest struct {
	Name  string `json:"name" binding:"max=255"`
	Phone string `json:"phone" binding:"max=50"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ToEntity converts the request into the embedded snapshot
func (r *CustomerRequest) ToEntity() entity.CustomerInfo {
	if r == nil {
		return entity.CustomerInfo{}
	}
	return entity.CustomerInfo{Name: r.Name, Phone: r.Phone, Email: r.Email}
}
