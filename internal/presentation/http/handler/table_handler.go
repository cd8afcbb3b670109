package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tableside-api/internal/application/service"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tableside-api/internal/presentation/http/dto/response"
)

// TableHandler handles table, session and reservation HTTP requests
type TableHandler struct {
	tableService *service.TableService
}

// NewTableHandler creates a new table handler
func NewTableHandler(tableService *service.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

// List handles listing tables
func (h *TableHandler) List(c *gin.Context) {
	params := &repository.TableFilterParams{Pagination: paginationFromQuery(c)}
	if statusStr := c.Query("status"); statusStr != "" {
		status := enum.TableStatus(statusStr)
		params.Status = &status
	}

	result, err := h.tableService.ListTables(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Tables retrieved successfully", result)
}

// Create handles creating a table
func (h *TableHandler) Create(c *gin.Context) {
	var req request.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.tableService.CreateTable(c.Request.Context(), &service.CreateTableInput{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Table created successfully", table)
}

// Get returns a table together with its current order, if any
func (h *TableHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	table, err := h.tableService.GetTable(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	order, err := h.tableService.ResolveCurrentOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Table retrieved successfully", gin.H{
		"table":         table,
		"current_order": order,
	})
}

// Delete handles deleting a table
func (h *TableHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	if err := h.tableService.DeleteTable(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Table deleted successfully", nil)
}

// SetStatus sets a table's status directly
func (h *TableHandler) SetStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	var req request.SetTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.tableService.SetStatus(c.Request.Context(), id, enum.TableStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Table status updated successfully", table)
}

// CheckIn seats a walk-in party
func (h *TableHandler) CheckIn(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	var req request.CheckInRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.tableService.CheckIn(c.Request.Context(), &service.CheckInInput{
		TableID:  id,
		Customer: req.Customer.ToEntity(),
		Source:   enum.SessionSourceStaff,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Checked in successfully", session)
}

// CheckOut ends one session, or every session when none is named
func (h *TableHandler) CheckOut(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	var req request.CheckOutRequest
	_ = c.ShouldBindJSON(&req)

	table, err := h.tableService.CheckOut(c.Request.Context(), id, req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Checked out successfully", table)
}

// Sessions lists the open sessions at a table
func (h *TableHandler) Sessions(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	sessions, err := h.tableService.ListActiveSessions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sessions retrieved successfully", sessions)
}

// Availability reports whether a table is free for a window
func (h *TableHandler) Availability(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	start := queryDate(c, "start")
	end := queryDate(c, "end")
	if start == nil || end == nil {
		response.BadRequest(c, "start and end are required")
		return
	}

	available, err := h.tableService.IsAvailableAt(c.Request.Context(), id, *start, *end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Availability checked", gin.H{"available": available})
}

// ListReservations lists a table's bookings, optionally within a window
func (h *TableHandler) ListReservations(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	reservations, err := h.tableService.ListReservations(c.Request.Context(), id, queryDate(c, "from"), queryDate(c, "to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reservations retrieved successfully", reservations)
}

// CreateReservation books a table
func (h *TableHandler) CreateReservation(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid table ID")
		return
	}

	var req request.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	reservation, err := h.tableService.CreateReservation(c.Request.Context(), &service.CreateReservationInput{
		TableID:   id,
		Customer:  req.Customer.ToEntity(),
		PartySize: req.PartySize,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
		CreatedBy: GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Reservation created successfully", reservation)
}

// UpdateReservationStatus moves a reservation along its lifecycle
func (h *TableHandler) UpdateReservationStatus(c *gin.Context) {
	id, ok := paramUUID(c, "reservationId")
	if !ok {
		response.BadRequest(c, "Invalid reservation ID")
		return
	}

	var req request.UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	reservation, err := h.tableService.UpdateReservationStatus(c.Request.Context(), id, enum.ReservationStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reservation updated successfully", reservation)
}
