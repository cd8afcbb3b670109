package enum

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusServed     OrderStatus = "served"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusInProgress: 1,
	OrderStatusReady:      2,
	OrderStatusServed:     3,
	OrderStatusCompleted:  4,
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusRank[s]
	return ok || s == OrderStatusCancelled
}

// IsTerminal reports whether no further transition may leave s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Rank orders the forward path pending → completed. Cancelled has no rank.
func (s OrderStatus) Rank() (int, bool) {
	r, ok := orderStatusRank[s]
	return r, ok
}

// ActiveOrderStatuses lists every non-terminal order status
func ActiveOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusInProgress, OrderStatusReady, OrderStatusServed}
}

// ItemStatus represents the preparation status of a single order line
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusInProgress ItemStatus = "in-progress"
	ItemStatusReady      ItemStatus = "ready"
	ItemStatusServed     ItemStatus = "served"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

var itemStatusRank = map[ItemStatus]int{
	ItemStatusPending:    0,
	ItemStatusInProgress: 1,
	ItemStatusReady:      2,
	ItemStatusServed:     3,
}

func (s ItemStatus) IsValid() bool {
	_, ok := itemStatusRank[s]
	return ok || s == ItemStatusCancelled
}

func (s ItemStatus) Rank() (int, bool) {
	r, ok := itemStatusRank[s]
	return r, ok
}

// Consumes reports whether an item in this status has used up its ingredients
func (s ItemStatus) Consumes() bool {
	return s == ItemStatusReady || s == ItemStatusServed
}

// OrderPaymentStatus is the settlement state stored on the order itself
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// Priority represents kitchen priority of an order
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight is used to sort the kitchen queue, higher first
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	}
	return 0
}

// OrderType distinguishes table service from takeaway
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}
