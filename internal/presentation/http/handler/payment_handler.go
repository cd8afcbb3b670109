package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Initialize opens a payment attempt for an order
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req request.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.Initialize(c.Request.Context(), req.OrderID, enum.PaymentMethod(req.Method), GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment initialized successfully", payment)
}

// Get returns a payment by transaction id
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("txnId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", payment)
}

// RecordProof attaches a proof of payment
func (h *PaymentHandler) RecordProof(c *gin.Context) {
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

	response.OK(c, "Payment proof recorded", payment)
}

// Verify approves or rejects a payment awaiting review
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req request.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.Verify(c.Request.Context(), c.Param("txnId"), *req.Approve, req.Notes, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Payment verified"
	if !*req.Approve {
		message = "Payment rejected"
	}
	response.OK(c, message, payment)
}

// ConfirmCash settles an order in cash
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	var req request.ConfirmCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.ConfirmCash(c.Request.Context(), &service.ConfirmCashInput{
		OrderID:    req.OrderID,
		Amount:     req.Amount,
		Notes:      req.Notes,
		ReceivedBy: GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cash payment confirmed", payment)
}

// ListForOrder lists every payment attempt for an order
func (h *PaymentHandler) ListForOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	payments, err := h.paymentService.GetPaymentsForOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", payments)
}
