package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/sangkips/tableside-api/pkg/utils"
)

// OrderService enforces the order and item state machines and keeps the
// table and inventory in step with them
type OrderService struct {
	tx             repository.TxManager
	orderRepo      repository.OrderRepository
	itemRepo       repository.OrderItemRepository
	historyRepo    repository.OrderHistoryRepository
	menuRepo       repository.MenuItemRepository
	restaurantRepo repository.RestaurantRepository
	tables         *TableService
	deductions     DeductionDispatcher
	events         event.Sink
	numberPrefix   string
	log            zerolog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	tx repository.TxManager,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	historyRepo repository.OrderHistoryRepository,
	menuRepo repository.MenuItemRepository,
	restaurantRepo repository.RestaurantRepository,
	tables *TableService,
	deductions DeductionDispatcher,
	events event.Sink,
	numberPrefix string,
	log zerolog.Logger,
) *OrderService {
	if events == nil {
		events = event.NopSink{}
	}
	if numberPrefix == "" {
		numberPrefix = "ORD"
	}
	return &OrderService{
		tx:             tx,
		orderRepo:      orderRepo,
		itemRepo:       itemRepo,
		historyRepo:    historyRepo,
		menuRepo:       menuRepo,
		restaurantRepo: restaurantRepo,
		tables:         tables,
		deductions:     deductions,
		events:         events,
		numberPrefix:   numberPrefix,
		log:            log,
	}
}

// OrderItemInput represents a requested order line
type OrderItemInput struct {
	MenuItemID          uuid.UUID
	Quantity            int
	SpecialInstructions string
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	OrderType           enum.OrderType
	TableID             *uuid.UUID
	SessionID           *uuid.UUID
	Customer            entity.CustomerInfo
	PaymentMethod       enum.PaymentMethod
	Priority            enum.Priority
	SpecialInstructions string
	Discount            float64
	Tip                 float64
	Items               []OrderItemInput
	CreatedBy           *uuid.UUID
}

// CreateOrder validates the request, snapshots item names and prices,
// numbers the order and occupies the table in one transaction
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = enum.OrderTypeDineIn
	}
	priority := input.Priority
	if priority == "" {
		priority = enum.PriorityNormal
	}

	var fieldErrors []apperror.FieldError
	if !orderType.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "order_type", Message: "Order type must be dine-in or takeaway"})
	}
	if orderType == enum.OrderTypeDineIn && input.TableID == nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "table_id", Message: "Table is required for dine-in orders"})
	}
	if !priority.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "priority", Message: "Unknown priority"})
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_method", Message: "Unknown payment method"})
	}
	if input.Discount < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount", Message: "Discount cannot be negative"})
	}
	if input.Tip < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tip", Message: "Tip cannot be negative"})
	}
	if len(input.Items) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items", Message: "Order must contain at least one item"})
	}
	fieldErrors = append(fieldErrors, validateItemInputs(input.Items)...)
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, apperror.NewNotFoundError("Restaurant")
	}

	order := &entity.Order{
		ID:                  uuid.New(),
		RestaurantID:        restaurantID,
		OrderType:           orderType,
		SessionID:           input.SessionID,
		Customer:            input.Customer,
		Status:              enum.OrderStatusPending,
		PaymentStatus:       enum.OrderPaymentPending,
		PaymentMethod:       input.PaymentMethod,
		Priority:            priority,
		SpecialInstructions: strings.TrimSpace(input.SpecialInstructions),
		TaxRate:             restaurant.TaxRate,
		ServiceChargeRate:   restaurant.ServiceChargeRate,
		DiscountAmount:      entity.AmountToCents(input.Discount),
		TipAmount:           entity.AmountToCents(input.Tip),
		CreatedBy:           input.CreatedBy,
	}
	if orderType == enum.OrderTypeDineIn {
		order.TableID = input.TableID
	}

	items, err := s.buildItems(ctx, order.ID, input.Items, 0)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.Recalculate()
	if order.TotalAmount < 0 {
		return nil, apperror.NewFieldError("discount", "Discount exceeds the order amount")
	}
	order.AppendHistory(enum.OrderStatusPending, "Order created", input.CreatedBy, false)

	var batch event.Batch
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if order.TableID != nil {
			if _, err := s.tables.AttachOrder(ctx, *order.TableID, order.ID, order.Customer, &batch); err != nil {
				return err
			}
		}

		// The business day rolls over at local midnight
		now := time.Now().In(restaurant.Location())
		seq, err := s.orderRepo.NextNumber(ctx, restaurantID, utils.BusinessDate(now))
		if err != nil {
			return err
		}
		order.OrderNumber = utils.FormatOrderNumber(restaurant.NumberPrefix(s.numberPrefix), now, seq)

		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("items", len(order.Items)).
		Msg("order created")

	s.events.Notify(event.TopicOrderCreated, event.NewPayload(order.RestaurantID, order))
	batch.Flush(s.events)

	return order, nil
}

func validateItemInputs(inputs []OrderItemInput) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	for i, item := range inputs {
		if item.MenuItemID == uuid.Nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].menu_item_id", i),
				Message: "Menu item is required",
			})
		}
		if item.Quantity <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "Quantity must be at least 1",
			})
		}
	}
	return fieldErrors
}

// buildItems resolves menu items in one query and snapshots their name and price
func (s *OrderService) buildItems(ctx context.Context, orderID uuid.UUID, inputs []OrderItemInput, startPosition int) ([]entity.OrderItem, error) {
	menuIDs := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		menuIDs = append(menuIDs, in.MenuItemID)
	}

	menuItems, err := s.menuRepo.GetByIDs(ctx, menuIDs)
	if err != nil {
		return nil, err
	}
	menuMap := make(map[uuid.UUID]*entity.MenuItem, len(menuItems))
	for i := range menuItems {
		menuMap[menuItems[i].ID] = &menuItems[i]
	}

	items := make([]entity.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		menuItem, exists := menuMap[in.MenuItemID]
		if !exists {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Menu item %s", in.MenuItemID))
		}
		if !menuItem.IsAvailable {
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].menu_item_id", i), menuItem.Name+" is not available")
		}

		items = append(items, entity.OrderItem{
			ID:                  uuid.New(),
			OrderID:             orderID,
			Position:            startPosition + i,
			MenuItemID:          menuItem.ID,
			Name:                menuItem.Name,
			UnitPrice:           menuItem.Price,
			Quantity:            in.Quantity,
			Status:              enum.ItemStatusPending,
			SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		})
	}
	return items, nil
}

// GetOrder returns an order with its items and processing history
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// GetOrderByNumber looks an order up by its printed number, e.g. ORD-310304-0007
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if orderNumber == "" {
		return nil, apperror.NewFieldError("order_number", "Order number is required")
	}
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders lists orders with filtering and pagination
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, apperror.NewFieldError("status", "Unknown order status")
	}

	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(orders, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// ListKitchenQueue returns orders still being prepared, most urgent and oldest first
func (s *OrderService) ListKitchenQueue(ctx context.Context) ([]entity.Order, error) {
	return s.orderRepo.ListKitchenQueue(ctx)
}

// mutation carries the bookkeeping of one state change until commit
type mutation struct {
	order        *entity.Order
	historyStart int
	changedItems []*entity.OrderItem
	newItems     []entity.OrderItem
	claimed      []entity.OrderItem
	batch        event.Batch
	reason       string
}

// mutate locks the order, lets fn change it, then persists the order row,
// touched items and new history entries. Events and deduction jobs are
// released only after the transaction commits.
func (s *OrderService) mutate(ctx context.Context, orderID uuid.UUID, actor *uuid.UUID, fn func(ctx context.Context, m *mutation) error) (*entity.Order, error) {
	m := &mutation{}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperror.NewNotFoundError("Order")
		}
		m.order = order
		m.historyStart = len(order.History)

		if err := fn(ctx, m); err != nil {
			return err
		}

		if len(m.claimed) > 0 {
			if err := s.claim(ctx, m); err != nil {
				return err
			}
		}
		if err := s.itemRepo.CreateBatch(ctx, m.newItems); err != nil {
			return err
		}
		for _, item := range m.changedItems {
			if err := s.itemRepo.Update(ctx, item); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		if err := s.historyRepo.CreateBatch(ctx, order.History[m.historyStart:]); err != nil {
			return err
		}

		m.batch.Add(event.TopicOrderUpdated, order.RestaurantID, order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(m, actor)
	m.batch.Flush(s.events)
	return m.order, nil
}

// claim stamps the candidate items as deducted so no later trigger books them again
func (s *OrderService) claim(ctx context.Context, m *mutation) error {
	now := time.Now().UTC()
	ids := make([]uuid.UUID, 0, len(m.claimed))
	for _, item := range m.claimed {
		ids = append(ids, item.ID)
	}

	n, err := s.itemRepo.MarkDeducted(ctx, ids, now)
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		s.log.Warn().
			Str("order_id", m.order.ID.String()).
			Int("expected", len(ids)).
			Int64("claimed", n).
			Msg("some items were already claimed for deduction")
	}

	for i := range m.claimed {
		m.claimed[i].InventoryDeductedAt = &now
		if item := m.order.FindItem(m.claimed[i].ID); item != nil {
			item.InventoryDeductedAt = &now
		}
	}
	return nil
}

// queueDeduction adds every deductible item among candidates to the claim list
func (m *mutation) queueDeduction(reason string, candidates ...*entity.OrderItem) {
	for _, item := range candidates {
		if item == nil || !item.Deductible() {
			continue
		}
		dup := false
		for _, c := range m.claimed {
			if c.ID == item.ID {
				dup = true
				break
			}
		}
		if !dup {
			m.claimed = append(m.claimed, *item)
		}
	}
	if m.reason == "" {
		m.reason = reason
	}
}

func (m *mutation) touch(item *entity.OrderItem) {
	for _, existing := range m.changedItems {
		if existing == item {
			return
		}
	}
	m.changedItems = append(m.changedItems, item)
}

func (s *OrderService) dispatch(m *mutation, actor *uuid.UUID) {
	if len(m.claimed) == 0 || s.deductions == nil {
		return
	}
	job := DeductionJob{
		RestaurantID: m.order.RestaurantID,
		OrderID:      m.order.ID,
		Items:        m.claimed,
		Actor:        actor,
		Reason:       m.reason,
	}
	if !s.deductions.Submit(job) {
		s.log.Warn().
			Str("order_id", m.order.ID.String()).
			Int("items", len(m.claimed)).
			Msg("inventory deduction was not scheduled")
	}
}

// UpdateOrderStatus moves the order forward. Reaching served or completed
// books the ingredients of every active item not yet deducted. Reaching
// completed or cancelled releases the table.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enum.OrderStatus, note string, actor *uuid.UUID) (*entity.Order, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Unknown order status")
	}
	if status == enum.OrderStatusCancelled {
		return s.CancelOrder(ctx, orderID, note, actor)
	}

	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status.IsTerminal() {
			return apperror.NewInvalidStateTransitionError("Order %s is already %s", order.OrderNumber, order.Status)
		}

		from, _ := order.Status.Rank()
		to, _ := status.Rank()
		if to <= from {
			return apperror.NewInvalidStateTransitionError("Order cannot move from %s to %s", order.Status, status)
		}

		previous := order.Status
		order.Status = status
		if note = strings.TrimSpace(note); note == "" {
			note = fmt.Sprintf("Status changed from %s to %s", previous, status)
		}
		order.AppendHistory(status, note, actor, false)

		if consumesOrder(status) && !consumesOrder(previous) {
			for i := range order.Items {
				m.queueDeduction("order "+string(status), &order.Items[i])
			}
		}

		// Settled before it reached the table
		if status == enum.OrderStatusServed && order.PaymentStatus == enum.OrderPaymentPaid {
			order.Status = enum.OrderStatusCompleted
			order.AppendHistory(order.Status, "Completed on serving, already paid", actor, true)
		}

		if order.Status == enum.OrderStatusCompleted {
			now := time.Now().UTC()
			order.CompletedAt = &now
			return s.releaseTable(ctx, order, &m.batch)
		}
		return nil
	})
}

func consumesOrder(status enum.OrderStatus) bool {
	return status == enum.OrderStatusServed || status == enum.OrderStatusCompleted
}

func (s *OrderService) releaseTable(ctx context.Context, order *entity.Order, batch *event.Batch) error {
	if order.TableID == nil {
		return nil
	}
	_, err := s.tables.ReleaseOrder(ctx, *order.TableID, order.ID, batch)
	return err
}

// UpdateItemStatus moves one item forward and applies the automatic order
// promotions. An item reaching ready or served books its ingredients.
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status enum.ItemStatus, actor *uuid.UUID) (*entity.Order, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Unknown item status")
	}
	if status == enum.ItemStatusCancelled {
		return nil, apperror.NewInvalidStateTransitionError("Items are cancelled by removing them from the order")
	}

	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status.IsTerminal() {
			return apperror.NewInvalidStateTransitionError("Order %s is already %s", order.OrderNumber, order.Status)
		}

		item := order.FindItem(itemID)
		if item == nil {
			return apperror.NewNotFoundError("Order item")
		}
		if item.Status == enum.ItemStatusCancelled {
			return apperror.NewInvalidStateTransitionError("Item %s is cancelled", item.Name)
		}

		from, _ := item.Status.Rank()
		to, _ := status.Rank()
		if to <= from {
			return apperror.NewInvalidStateTransitionError("Item %s cannot move from %s to %s", item.Name, item.Status, status)
		}

		previous := item.Status
		item.Status = status
		m.touch(item)
		order.AppendHistory(order.Status, fmt.Sprintf("%s marked %s", item.Name, status), actor, false)

		if status.Consumes() && !previous.Consumes() {
			m.queueDeduction("item "+string(status), item)
		}

		s.autoPromote(order, actor)
		return nil
	})
}

// autoPromote applies the system promotions that follow an item change.
// Each promotion gets its own history entry after the caller's.
func (s *OrderService) autoPromote(order *entity.Order, actor *uuid.UUID) {
	rank, _ := order.Status.Rank()
	inProgressRank, _ := enum.OrderStatusInProgress.Rank()
	readyRank, _ := enum.OrderStatusReady.Rank()

	if rank < inProgressRank {
		started := false
		for _, item := range order.ActiveItems() {
			if item.Status != enum.ItemStatusPending {
				started = true
				break
			}
		}
		if started {
			order.Status = enum.OrderStatusInProgress
			order.AppendHistory(order.Status, "Preparation started", actor, true)
			rank = inProgressRank
		}
	}

	if rank < readyRank && order.AllItemsReady() {
		order.Status = enum.OrderStatusReady
		order.AppendHistory(order.Status, "All items ready", actor, true)
	}
}

// AddItems appends lines to an open, unpaid order. A served order goes back to
// in-progress because the new lines still need preparing.
func (s *OrderService) AddItems(ctx context.Context, orderID uuid.UUID, inputs []OrderItemInput, actor *uuid.UUID) (*entity.Order, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewFieldError("items", "At least one item is required")
	}
	if fieldErrors := validateItemInputs(inputs); len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status.IsTerminal() {
			return apperror.NewInvalidStateTransitionError("Cannot add items to a %s order", order.Status)
		}
		if order.PaymentStatus == enum.OrderPaymentPaid {
			return apperror.NewInvalidStateTransitionError("Order %s is already paid, open a new order for more items", order.OrderNumber)
		}

		start := 0
		for _, item := range order.Items {
			if item.Position >= start {
				start = item.Position + 1
			}
		}

		items, err := s.buildItems(ctx, order.ID, inputs, start)
		if err != nil {
			return err
		}
		m.newItems = items
		order.Items = append(order.Items, items...)
		order.Recalculate()

		names := make([]string, len(items))
		for i, item := range items {
			names[i] = fmt.Sprintf("%dx %s", item.Quantity, item.Name)
		}
		order.AppendHistory(order.Status, "Added "+strings.Join(names, ", "), actor, false)

		if order.Status == enum.OrderStatusServed {
			order.Status = enum.OrderStatusInProgress
			order.AppendHistory(order.Status, "Returned to kitchen for added items", actor, true)
		}
		return nil
	})
}

// RemoveItem cancels a line. The row is kept for audit and totals drop it.
// The last active line cannot be removed; a pending order is cancelled instead.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID, reason string, actor *uuid.UUID) (*entity.Order, error) {
	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status.IsTerminal() {
			return apperror.NewInvalidStateTransitionError("Cannot remove items from a %s order", order.Status)
		}

		item := order.FindItem(itemID)
		if item == nil {
			return apperror.NewNotFoundError("Order item")
		}
		switch item.Status {
		case enum.ItemStatusServed:
			return apperror.NewInvalidStateTransitionError("Item %s has already been served", item.Name)
		case enum.ItemStatusCancelled:
			return apperror.NewInvalidStateTransitionError("Item %s is already cancelled", item.Name)
		}
		if len(order.ActiveItems()) == 1 {
			if order.Status == enum.OrderStatusPending {
				return apperror.NewInvalidStateTransitionError("Item %s is the last one on order %s, cancel the order instead", item.Name, order.OrderNumber)
			}
			return apperror.NewInvalidStateTransitionError("Item %s is the last one on order %s", item.Name, order.OrderNumber)
		}

		reason = strings.TrimSpace(reason)
		now := time.Now().UTC()
		item.Status = enum.ItemStatusCancelled
		item.CancellationReason = reason
		item.CancelledAt = &now
		m.touch(item)
		order.Recalculate()

		note := "Removed " + item.Name
		if reason != "" {
			note += ": " + reason
		}
		order.AppendHistory(order.Status, note, actor, false)

		s.autoPromote(order, actor)
		return nil
	})
}

// CancelOrder cancels an order that has not started preparation and frees its table
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string, actor *uuid.UUID) (*entity.Order, error) {
	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status != enum.OrderStatusPending {
			return apperror.NewInvalidStateTransitionError("Only pending orders can be cancelled, order %s is %s", order.OrderNumber, order.Status)
		}

		reason = strings.TrimSpace(reason)
		now := time.Now().UTC()
		order.Status = enum.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancelledBy = actor
		order.CancellationReason = reason

		note := "Order cancelled"
		if reason != "" {
			note += ": " + reason
		}
		order.AppendHistory(order.Status, note, actor, false)

		return s.releaseTable(ctx, order, &m.batch)
	})
}

// SetPriority changes the kitchen priority of an open order
func (s *OrderService) SetPriority(ctx context.Context, orderID uuid.UUID, priority enum.Priority, actor *uuid.UUID) (*entity.Order, error) {
	if !priority.IsValid() {
		return nil, apperror.NewFieldError("priority", "Unknown priority")
	}

	return s.mutate(ctx, orderID, actor, func(ctx context.Context, m *mutation) error {
		order := m.order
		if order.Status.IsTerminal() {
			return apperror.NewInvalidStateTransitionError("Order %s is already %s", order.OrderNumber, order.Status)
		}
		if order.Priority == priority {
			return nil
		}

		order.AppendHistory(order.Status, fmt.Sprintf("Priority changed from %s to %s", order.Priority, priority), actor, false)
		order.Priority = priority
		return nil
	})
}

// MarkOrderPaid records settlement on the order and completes a served order.
// It must run inside the caller's transaction; events go to batch.
func (s *OrderService) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, method enum.PaymentMethod, actor *uuid.UUID, batch *event.Batch) (*entity.Order, error) {
	order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if order.Status == enum.OrderStatusCancelled {
		return nil, apperror.NewInvalidStateTransitionError("Order %s is cancelled", order.OrderNumber)
	}

	historyStart := len(order.History)
	now := time.Now().UTC()
	order.PaymentStatus = enum.OrderPaymentPaid
	order.PaymentMethod = method
	order.PaidAt = &now
	order.AppendHistory(order.Status, "Payment received via "+string(method), actor, false)

	if order.Status == enum.OrderStatusServed {
		order.Status = enum.OrderStatusCompleted
		order.CompletedAt = &now
		order.AppendHistory(order.Status, "Completed on payment", actor, true)
		if err := s.releaseTable(ctx, order, batch); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	if err := s.historyRepo.CreateBatch(ctx, order.History[historyStart:]); err != nil {
		return nil, err
	}

	batch.Add(event.TopicOrderUpdated, order.RestaurantID, order)
	return order, nil
}
