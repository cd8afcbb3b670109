package request

import "github.com/google/uuid"

// OrderItemRequest is one requested order line
type OrderItemRequest struct {
	MenuItemID          uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity            int       `json:"quantity" binding:"required,min=1"`
	SpecialInstructions string    `json:"special_instructions"`
}

// CreateOrderRequest represents a staff order request
type CreateOrderRequest struct {
	OrderType           string             `json:"order_type" binding:"omitempty,oneof=dine-in takeaway"`
	TableID             *uuid.UUID         `json:"table_id"`
	SessionID           *uuid.UUID         `json:"session_id"`
	Customer            *CustomerRequest   `json:"customer"`
	PaymentMethod       string             `json:"payment_method"`
	Priority            string             `json:"priority"`
	SpecialInstructions string             `json:"special_instructions"`
	Discount            float64            `json:"discount" binding:"min=0"`
	Tip                 float64            `json:"tip" binding:"min=0"`
	Items               []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PublicOrderRequest is sent by a customer after scanning a table's QR code
type PublicOrderRequest struct {
	SessionID           *uuid.UUID         `json:"session_id"`
	Customer            *CustomerRequest   `json:"customer"`
	PaymentMethod       string             `json:"payment_method"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// AddItemsRequest appends lines to an open order
type AddItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateItemStatusRequest moves one order line to a new status
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReasonRequest carries an optional reason for cancellations and removals
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// SetPriorityRequest changes the kitchen priority of an order
type SetPriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=low normal high urgent"`
}
