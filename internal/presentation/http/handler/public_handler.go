package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tableside-api/pkg/pagination"
)

// PublicHandler serves the customer flow that starts with scanning a table's QR code.
// The restaurant comes from the :slug path parameter.
type PublicHandler struct {
	tableService   *service.TableService
	menuService    *service.MenuService
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(
	tableService *service.TableService,
	menuService *service.MenuService,
	orderService *service.OrderService,
	paymentService *service.PaymentService,
) *PublicHandler {
	return &PublicHandler{
		tableService:   tableService,
		menuService:    menuService,
		orderService:   orderService,
		paymentService: paymentService,
	}
}

func currentRestaurant(c *gin.Context) *entity.Restaurant {
	v, ok := c.Get("restaurant")
	if !ok {
		return nil
	}
	restaurant, _ := v.(*entity.Restaurant)
	return restaurant
}

// orderView hides staff-only fields from customers
func orderView(order *entity.Order) gin.H {
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"id":         item.ID,
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": entity.CentsToAmount(item.UnitPrice),
			"status":     item.Status,
		})
	}
	return gin.H{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"items":          items,
		"subtotal":       entity.CentsToAmount(order.SubTotal),
		"tax":            entity.CentsToAmount(order.TaxAmount),
		"service_charge": entity.CentsToAmount(order.ServiceCharge),
		"discount":       entity.CentsToAmount(order.DiscountAmount),
		"tip":            entity.CentsToAmount(order.TipAmount),
		"total":          entity.CentsToAmount(order.TotalAmount),
		"created_at":     order.CreatedAt,
	}
}

// Menu lists what can be ordered right now
func (h *PublicHandler) Menu(c *gin.Context) {
	params := &repository.MenuFilterParams{
		Pagination:    &pagination.PaginationParams{Page: 1, PerPage: 100},
		Category:      c.Query("category"),
		AvailableOnly: true,
	}

	result, err := h.menuService.ListMenuItems(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := gin.H{"items": result.Items}
	if restaurant := currentRestaurant(c); restaurant != nil {
		data["restaurant"] = gin.H{
			"name":     restaurant.Name,
			"currency": restaurant.Currency,
		}
	}
	response.OK(c, "Menu retrieved successfully", data)
}

// Table shows the scanned table without customer details
func (h *PublicHandler) Table(c *gin.Context) {
	table, err := h.tableService.GetTableByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Table retrieved successfully", gin.H{
		"id":           table.ID,
		"table_number": table.TableNumber,
		"capacity":     table.Capacity,
		"status":       table.Status,
	})
}

// CheckIn opens a session for the customer who scanned the table
func (h *PublicHandler) CheckIn(c *gin.Context) {
	table, err := h.tableService.GetTableByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.CheckInRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.tableService.CheckIn(c.Request.Context(), &service.CheckInInput{
		TableID:  table.ID,
		Customer: req.Customer.ToEntity(),
		Source:   enum.SessionSourceScan,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Checked in successfully", session)
}

// PlaceOrder creates a dine-in order for the scanned table
func (h *PublicHandler) PlaceOrder(c *gin.Context) {
	table, err := h.tableService.GetTableByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.PublicOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		OrderType:           enum.OrderTypeDineIn,
		TableID:             &table.ID,
		SessionID:           req.SessionID,
		Customer:            req.Customer.ToEntity(),
		PaymentMethod:       enum.PaymentMethod(req.PaymentMethod),
		SpecialInstructions: req.SpecialInstructions,
		Items:               itemInputs(req.Items),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order placed successfully", orderView(order))
}

// TrackOrder returns the customer's view of an order. The path takes either
// the order id or the number printed on the receipt.
func (h *PublicHandler) TrackOrder(c *gin.Context) {
	var order *entity.Order
	var err error
	if id, ok := paramUUID(c, "id"); ok {
		order, err = h.orderService.GetOrder(c.Request.Context(), id)
	} else {
		order, err = h.orderService.GetOrderByNumber(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", orderView(order))
}

// StartPayment opens a payment attempt on the customer's order
func (h *PublicHandler) StartPayment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req struct {
		Method string `json:"method" binding:"required,oneof=card mobile_money bank_transfer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.Initialize(c.Request.Context(), id, enum.PaymentMethod(req.Method), nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment initialized successfully", payment)
}

// SubmitProof attaches the customer's proof of payment
func (h *PublicHandler) SubmitProof(c *gin.Context) {
	var req request.RecordProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.RecordProof(c.Request.Context(), c.Param("txnId"), req.ProofReference, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment proof submitted", payment)
}
