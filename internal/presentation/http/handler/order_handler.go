package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func itemInputs(reqs []request.OrderItemRequest) []service.OrderItemInput {
	items := make([]service.OrderItemInput, len(reqs))
	for i, item := range reqs {
		items[i] = service.OrderItemInput{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		}
	}
	return items
}

// List handles listing orders
func (h *OrderHandler) List(c *gin.Context) {
	params := &repository.OrderFilterParams{
		Pagination: paginationFromQuery(c),
		Search:     c.Query("search"),
		TableID:    queryUUID(c, "table_id"),
		StartDate:  queryDate(c, "start_date"),
		EndDate:    queryDate(c, "end_date"),
		SortOrder:  c.Query("sort_order"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := enum.OrderStatus(statusStr)
		params.Status = &status
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

// KitchenQueue lists orders still being prepared
func (h *OrderHandler) KitchenQueue(c *gin.Context) {
	orders, err := h.orderService.ListKitchenQueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Kitchen queue retrieved successfully", orders)
}

// Create handles creating an order
func (h *OrderHandler) Create(c *gin.Context) {
	var req request.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		OrderType:           enum.OrderType(req.OrderType),
		TableID:             req.TableID,
		SessionID:           req.SessionID,
		Customer:            req.Customer.ToEntity(),
		PaymentMethod:       enum.PaymentMethod(req.PaymentMethod),
		Priority:            enum.Priority(req.Priority),
		SpecialInstructions: req.SpecialInstructions,
		Discount:            req.Discount,
		Tip:                 req.Tip,
		Items:               itemInputs(req.Items),
		CreatedBy:           GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// Get handles getting a single order
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// UpdateStatus moves an order along its lifecycle
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req request.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, enum.OrderStatus(req.Status), req.Note, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order status updated successfully", order)
}

// UpdateItemStatus moves one order line along its lifecycle
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}
	itemID, ok := paramUUID(c, "itemId")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	var req request.UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateItemStatus(c.Request.Context(), id, itemID, enum.ItemStatus(req.Status), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item status updated successfully", order)
}

// AddItems appends lines to an open order
func (h *OrderHandler) AddItems(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req request.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.AddItems(c.Request.Context(), id, itemInputs(req.Items), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Items added successfully", order)
}

// RemoveItem cancels one line of an order
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}
	itemID, ok := paramUUID(c, "itemId")
	if !ok {
		response.BadRequest(c, "Invalid item ID")
		return
	}

	// The reason body is optional
	var req request.ReasonRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.RemoveItem(c.Request.Context(), id, itemID, req.Reason, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed successfully", order)
}

// Cancel cancels a pending order
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req request.ReasonRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.CancelOrder(c.Request.Context(), id, req.Reason, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order cancelled successfully", order)
}

// SetPriority changes the kitchen priority of an order
func (h *OrderHandler) SetPriority(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req request.SetPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.SetPriority(c.Request.Context(), id, enum.Priority(req.Priority), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order priority updated successfully", order)
}
