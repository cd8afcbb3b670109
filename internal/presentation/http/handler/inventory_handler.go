package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// InventoryHandler handles stock item and ledger HTTP requests
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// List handles listing stock items
func (h *InventoryHandler) List(c *gin.Context) {
	params := &repository.InventoryFilterParams{
		Pagination:   paginationFromQuery(c),
		Search:       c.Query("search"),
		LowStockOnly: c.Query("low_stock") == "true",
	}

	result, err := h.inventoryService.ListItems(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Inventory items retrieved successfully", result)
}

// Create handles creating a stock item
func (h *InventoryHandler) Create(c *gin.Context) {
	var req request.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), &service.CreateInventoryItemInput{
		Name:            req.Name,
		Unit:            req.Unit,
		InitialQuantity: req.InitialQuantity,
		UnitPrice:       req.UnitPrice,
		ReorderLevel:    req.ReorderLevel,
		ExpiryDate:      req.ExpiryDate,
		PerformedBy:     GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Inventory item created successfully", item)
}

// Get handles getting a single stock item
func (h *InventoryHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid inventory item ID")
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Inventory item retrieved successfully", item)
}

// Update handles editing a stock item
func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid inventory item ID")
		return
	}

	var req request.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, &service.UpdateInventoryItemInput{
		Name:         req.Name,
		Unit:         req.Unit,
		UnitPrice:    req.UnitPrice,
		ReorderLevel: req.ReorderLevel,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Inventory item updated successfully", item)
}

// Delete handles deleting a stock item
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid inventory item ID")
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Inventory item deleted successfully", nil)
}

// RecordTransaction applies a manual stock movement
func (h *InventoryHandler) RecordTransaction(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid inventory item ID")
		return
	}

	var req request.InventoryTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, txn, err := h.inventoryService.ApplyTransaction(c.Request.Context(), &service.ApplyTransactionInput{
		ItemID:      id,
		Type:        enum.TransactionType(req.Type),
		Quantity:    req.Quantity,
		Note:        req.Note,
		PerformedBy: GetUserID(c),
		Source:      enum.TransactionSourceManual,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Stock movement recorded successfully", gin.H{
		"item":        item,
		"transaction": txn,
	})
}

// ListTransactions pages through an item's ledger
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid inventory item ID")
		return
	}

	result, err := h.inventoryService.ListTransactions(c.Request.Context(), id, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Transactions retrieved successfully", result)
}
