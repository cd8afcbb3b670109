package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order represents a customer order. Money fields are stored in cents.
type Order struct {
	ID                  uuid.UUID               `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID        uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_orders_restaurant_number" json:"restaurant_id"`
	OrderNumber         string                  `gorm:"size:50;not null;uniqueIndex:idx_orders_restaurant_number" json:"order_number"`
	OrderType           enum.OrderType          `gorm:"size:20;not null;default:'dine-in'" json:"order_type"`
	TableID             *uuid.UUID              `gorm:"type:uuid;index" json:"table_id,omitempty"`
	SessionID           *uuid.UUID              `gorm:"type:uuid" json:"session_id,omitempty"`
	Customer            CustomerInfo            `gorm:"embedded;embeddedPrefix:customer_" json:"-"`
	Status              enum.OrderStatus        `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus       enum.OrderPaymentStatus `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod       enum.PaymentMethod      `gorm:"size:20" json:"payment_method,omitempty"`
	Priority            enum.Priority           `gorm:"size:10;not null;default:'normal'" json:"priority"`
	SpecialInstructions string                  `gorm:"type:text" json:"special_instructions,omitempty"`
	TaxRate             decimal.Decimal         `gorm:"type:numeric(5,2);default:0" json:"tax_rate"`
	ServiceChargeRate   decimal.Decimal         `gorm:"type:numeric(5,2);default:0" json:"service_charge_rate"`
	SubTotal            int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TaxAmount           int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	ServiceCharge       int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	DiscountAmount      int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TipAmount           int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	TotalAmount         int64                   `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	CreatedBy           *uuid.UUID              `gorm:"type:uuid" json:"created_by,omitempty"`
	CancelledAt         *time.Time              `json:"cancelled_at,omitempty"`
	CancelledBy         *uuid.UUID              `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancellationReason  string                  `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CompletedAt         *time.Time              `json:"completed_at,omitempty"`
	PaidAt              *time.Time              `json:"paid_at,omitempty"`
	CreatedAt           time.Time               `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`

	// Relationships
	Items   []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	History []OrderHistory `gorm:"foreignKey:OrderID" json:"processing_history"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	return json.Marshal(&struct {
		Alias
		Customer       *CustomerInfo `json:"customer,omitempty"`
		SubTotal       float64       `json:"sub_total"`
		TaxAmount      float64       `json:"tax_amount"`
		ServiceCharge  float64       `json:"service_charge"`
		DiscountAmount float64       `json:"discount_amount"`
		TipAmount      float64       `json:"tip_amount"`
		TotalAmount    float64       `json:"total_amount"`
	}{
		Alias:          Alias(o),
		Customer:       o.Customer.Ptr(),
		SubTotal:       CentsToAmount(o.SubTotal),
		TaxAmount:      CentsToAmount(o.TaxAmount),
		ServiceCharge:  CentsToAmount(o.ServiceCharge),
		DiscountAmount: CentsToAmount(o.DiscountAmount),
		TipAmount:      CentsToAmount(o.TipAmount),
		TotalAmount:    CentsToAmount(o.TotalAmount),
	})
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Recalculate recomputes all derived amounts from the non-cancelled items.
// Tax and service charge are percentages of the subtotal, rounded to the cent.
func (o *Order) Recalculate() {
	var sub int64
	for i := range o.Items {
		if o.Items[i].Status == enum.ItemStatusCancelled {
			continue
		}
		sub += o.Items[i].LineTotal()
	}
	o.SubTotal = sub
	o.TaxAmount = PercentOf(sub, o.TaxRate)
	o.ServiceCharge = PercentOf(sub, o.ServiceChargeRate)
	o.TotalAmount = o.SubTotal + o.TaxAmount + o.ServiceCharge - o.DiscountAmount + o.TipAmount
}

// FindItem returns the item with the given id, or nil
func (o *Order) FindItem(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// ActiveItems returns the items that have not been cancelled
func (o *Order) ActiveItems() []OrderItem {
	active := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Status != enum.ItemStatusCancelled {
			active = append(active, item)
		}
	}
	return active
}

// AllItemsReady reports whether every active item is ready or served.
// An order with no active items is never considered ready.
func (o *Order) AllItemsReady() bool {
	seen := false
	for _, item := range o.Items {
		if item.Status == enum.ItemStatusCancelled {
			continue
		}
		seen = true
		if !item.Status.Consumes() {
			return false
		}
	}
	return seen
}

// AppendHistory records a processing history entry with the next sequence number
func (o *Order) AppendHistory(status enum.OrderStatus, note string, actor *uuid.UUID, auto bool) OrderHistory {
	seq := 1
	for _, h := range o.History {
		if h.Sequence >= seq {
			seq = h.Sequence + 1
		}
	}
	entry := OrderHistory{
		ID:          uuid.New(),
		OrderID:     o.ID,
		Sequence:    seq,
		Status:      status,
		Note:        note,
		Auto:        auto,
		PerformedBy: actor,
		CreatedAt:   time.Now(),
	}
	o.History = append(o.History, entry)
	return entry
}

// OrderItem represents a line of an order. Name and UnitPrice are snapshots
// taken when the line is added and never change afterwards.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position            int             `gorm:"not null;default:0" json:"position"`
	MenuItemID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"menu_item_id"`
	Name                string          `gorm:"size:255;not null" json:"name"`
	UnitPrice           int64           `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	Quantity            int             `gorm:"not null" json:"quantity"`
	Status              enum.ItemStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions,omitempty"`
	CancellationReason  string          `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	InventoryDeductedAt *time.Time      `json:"inventory_deducted_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (oi OrderItem) MarshalJSON() ([]byte, error) {
	type Alias OrderItem
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		Total     float64 `json:"total"`
	}{
		Alias:     Alias(oi),
		UnitPrice: CentsToAmount(oi.UnitPrice),
		Total:     CentsToAmount(oi.LineTotal()),
	})
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is unit price times quantity, in cents
func (oi *OrderItem) LineTotal() int64 {
	return oi.UnitPrice * int64(oi.Quantity)
}

// Deductible reports whether the item still owes an inventory deduction
func (oi *OrderItem) Deductible() bool {
	return oi.Status != enum.ItemStatusCancelled && oi.InventoryDeductedAt == nil
}

// OrderHistory is an append-only audit entry. Auto marks system promotions.
type OrderHistory struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_order_history_seq" json:"order_id"`
	Sequence    int              `gorm:"not null;uniqueIndex:idx_order_history_seq" json:"sequence"`
	Status      enum.OrderStatus `gorm:"size:20;not null" json:"status"`
	Note        string           `gorm:"type:text" json:"note,omitempty"`
	Auto        bool             `gorm:"default:false" json:"auto"`
	PerformedBy *uuid.UUID       `gorm:"type:uuid" json:"performed_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TableName returns the table name for the OrderHistory model
func (OrderHistory) TableName() string {
	return "order_history"
}

// OrderSequence is the per-restaurant, per-day order number counter
type OrderSequence struct {
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessDate string    `gorm:"size:10;primaryKey"`
	LastValue    int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

// TableName returns the table name for the OrderSequence model
func (OrderSequence) TableName() string {
	return "order_sequences"
}
