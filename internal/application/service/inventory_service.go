package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
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
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// maxParallelDeductions bounds concurrent ledger calls for one order
const maxParallelDeductions = 4

// InventoryService owns stock items and the append-only ledger
type InventoryService struct {
	tx       repository.TxManager
	itemRepo repository.InventoryRepository
	txnRepo  repository.InventoryTransactionRepository
	menuRepo repository.MenuItemRepository
	events   event.Sink
	log      zerolog.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	tx repository.TxManager,
	itemRepo repository.InventoryRepository,
	txnRepo repository.InventoryTransactionRepository,
	menuRepo repository.MenuItemRepository,
	events event.Sink,
	log zerolog.Logger,
) *InventoryService {
	if events == nil {
		events = event.NopSink{}
	}
	return &InventoryService{
		tx:       tx,
		itemRepo: itemRepo,
		txnRepo:  txnRepo,
		menuRepo: menuRepo,
		events:   events,
		log:      log,
	}
}

// CreateInventoryItemInput represents a new stock item
type CreateInventoryItemInput struct {
	Name            string
	Unit            string
	InitialQuantity decimal.Decimal
	UnitPrice       float64
	ReorderLevel    decimal.Decimal
	ExpiryDate      *time.Time
	PerformedBy     *uuid.UUID
}

// CreateItem registers a stock item. A positive initial quantity is booked as a purchase.
func (s *InventoryService) CreateItem(ctx context.Context, input *CreateInventoryItemInput) (*entity.InventoryItem, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	name := strings.TrimSpace(input.Name)
	var fieldErrors []apperror.FieldError
	if name == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(input.Unit) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "unit", Message: "Unit is required"})
	}
	if input.InitialQuantity.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "quantity", Message: "Quantity cannot be negative"})
	}
	if input.UnitPrice < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "unit_price", Message: "Unit price cannot be negative"})
	}
	if input.ReorderLevel.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "reorder_level", Message: "Reorder level cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	item := &entity.InventoryItem{
		RestaurantID: restaurantID,
		Name:         name,
		Quantity:     decimal.Zero,
		Unit:         strings.TrimSpace(input.Unit),
		UnitPrice:    entity.AmountToCents(input.UnitPrice),
		ReorderLevel: input.ReorderLevel,
		ExpiryDate:   input.ExpiryDate,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.itemRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflictError("Inventory item '" + name + "' already exists")
		}

		if err := s.itemRepo.Create(ctx, item); err != nil {
			return err
		}

		if input.InitialQuantity.IsPositive() {
			updated, _, err := s.ApplyTransaction(ctx, &ApplyTransactionInput{
				ItemID:      item.ID,
				Type:        enum.TransactionPurchase,
				Quantity:    input.InitialQuantity,
				Note:        "Opening stock",
				PerformedBy: input.PerformedBy,
			})
			if err != nil {
				return err
			}
			item = updated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetItem returns a stock item by ID
func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*entity.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Inventory item")
	}
	return item, nil
}

// ListItems lists stock items with optional low-stock filter
func (s *InventoryService) ListItems(ctx context.Context, params *repository.InventoryFilterParams) (*pagination.PaginatedResult[entity.InventoryItem], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	items, total, err := s.itemRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(items, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// UpdateInventoryItemInput represents editable descriptive fields. Stock moves only through the ledger.
type UpdateInventoryItemInput struct {
	Name         *string
	Unit         *string
	UnitPrice    *float64
	ReorderLevel *decimal.Decimal
	ExpiryDate   *time.Time
}

// UpdateItem edits descriptive fields of a stock item
func (s *InventoryService) UpdateItem(ctx context.Context, id uuid.UUID, input *UpdateInventoryItemInput) (*entity.InventoryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.NewFieldError("name", "Name is required")
		}
		if name != item.Name {
			existing, err := s.itemRepo.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, apperror.NewConflictError("Inventory item '" + name + "' already exists")
			}
		}
		item.Name = name
	}
	if input.Unit != nil {
		item.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return nil, apperror.NewFieldError("unit_price", "Unit price cannot be negative")
		}
		item.UnitPrice = entity.AmountToCents(*input.UnitPrice)
	}
	if input.ReorderLevel != nil {
		if input.ReorderLevel.IsNegative() {
			return nil, apperror.NewFieldError("reorder_level", "Reorder level cannot be negative")
		}
		item.ReorderLevel = *input.ReorderLevel
	}
	if input.ExpiryDate != nil {
		item.ExpiryDate = input.ExpiryDate
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem soft deletes a stock item that no recipe references
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.menuRepo.CountRecipeReferences(ctx, item.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return apperror.NewConflictError("Inventory item is used by menu recipes and cannot be deleted")
	}

	return s.itemRepo.Delete(ctx, item.ID)
}

// ApplyTransactionInput describes one stock movement
type ApplyTransactionInput struct {
	ItemID      uuid.UUID
	Type        enum.TransactionType
	Quantity    decimal.Decimal // amount moved, or the target level for adjustments
	Note        string
	PerformedBy *uuid.UUID
	Source      enum.TransactionSource
	OrderID     *uuid.UUID
	UnitPrice   *float64 // purchase price override, defaults to the item's unit price
}

// ApplyTransaction moves stock and appends a ledger entry in one transaction.
// Manual decreases may not go below zero; order-driven ones may, with a warning.
func (s *InventoryService) ApplyTransaction(ctx context.Context, input *ApplyTransactionInput) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, nil, apperror.ErrRestaurantRequired
	}
	if !input.Type.IsValid() {
		return nil, nil, apperror.NewFieldError("type", "Unknown transaction type")
	}
	if input.Type == enum.TransactionAdjustment {
		if input.Quantity.IsNegative() {
			return nil, nil, apperror.NewFieldError("quantity", "Adjusted quantity cannot be negative")
		}
	} else if !input.Quantity.IsPositive() {
		return nil, nil, apperror.NewFieldError("quantity", "Quantity must be greater than zero")
	}
	if input.UnitPrice != nil && *input.UnitPrice < 0 {
		return nil, nil, apperror.NewFieldError("unit_price", "Unit price cannot be negative")
	}
	source := input.Source
	if source == "" {
		source = enum.TransactionSourceManual
	}

	var item *entity.InventoryItem
	var txn *entity.InventoryTransaction

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if input.Type == enum.TransactionAdjustment {
			item, err = s.itemRepo.GetByIDForUpdate(ctx, input.ItemID)
		} else {
			item, err = s.itemRepo.GetByID(ctx, input.ItemID)
		}
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFoundError("Inventory item")
		}

		recorded := input.Quantity
		switch {
		case input.Type == enum.TransactionPurchase:
			err = s.itemRepo.AtomicIncrement(ctx, item.ID, input.Quantity)
		case input.Type.Decreases() && source == enum.TransactionSourceOrder:
			err = s.itemRepo.AtomicDecrement(ctx, item.ID, input.Quantity)
		case input.Type.Decreases():
			var applied bool
			applied, err = s.itemRepo.AtomicDecrementIfAvailable(ctx, item.ID, input.Quantity)
			if err == nil && !applied {
				return apperror.NewInsufficientStockError(item.Name, item.Quantity.String(), input.Quantity.String())
			}
		case input.Type == enum.TransactionAdjustment:
			recorded = input.Quantity.Sub(item.Quantity)
			err = s.itemRepo.SetQuantity(ctx, item.ID, input.Quantity)
		}
		if err != nil {
			return err
		}

		// Re-read inside the transaction; the row is ours until commit
		updated, err := s.itemRepo.GetByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperror.NewNotFoundError("Inventory item")
		}

		unitPrice := updated.UnitPrice
		if input.UnitPrice != nil {
			unitPrice = entity.AmountToCents(*input.UnitPrice)
		}

		previous := updated.Quantity
		switch {
		case input.Type == enum.TransactionPurchase:
			previous = updated.Quantity.Sub(input.Quantity)
		case input.Type.Decreases():
			previous = updated.Quantity.Add(input.Quantity)
		case input.Type == enum.TransactionAdjustment:
			previous = item.Quantity
		}

		txn = &entity.InventoryTransaction{
			RestaurantID:     restaurantID,
			InventoryItemID:  updated.ID,
			Type:             input.Type,
			Source:           source,
			Quantity:         recorded,
			UnitPrice:        unitPrice,
			TotalPrice:       recorded.Mul(decimal.NewFromInt(unitPrice)).Round(0).IntPart(),
			PreviousQuantity: previous,
			NewQuantity:      updated.Quantity,
			OrderID:          input.OrderID,
			PerformedBy:      input.PerformedBy,
			Note:             input.Note,
		}
		if err := s.txnRepo.Create(ctx, txn); err != nil {
			return err
		}

		item = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFoundError("Inventory item")
		}
		return nil, nil, err
	}

	if source == enum.TransactionSourceOrder && input.Type.Decreases() {
		if item.Quantity.IsNegative() {
			s.log.Warn().
				Str("inventory_item_id", item.ID.String()).
				Str("name", item.Name).
				Str("quantity", item.Quantity.String()).
				Msg("inventory went negative after order deduction")
		}
		if item.IsLowStock() {
			s.events.Notify(event.TopicInventoryLowStock, event.NewPayload(restaurantID, item))
		}
	}

	return item, txn, nil
}

// ListTransactions returns the ledger of one stock item, newest first
func (s *InventoryService) ListTransactions(ctx context.Context, itemID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.InventoryTransaction], error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	txns, total, err := s.txnRepo.ListByItem(ctx, itemID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(txns, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// DeductionFailure records one ingredient that could not be deducted
type DeductionFailure struct {
	InventoryItemID uuid.UUID
	Quantity        decimal.Decimal
	Err             error
}

// DeductionResult summarizes a best-effort deduction run
type DeductionResult struct {
	Applied  int
	Skipped  int
	Failures []DeductionFailure
}

// DeductForOrder deducts ingredients for every active item of the order
func (s *InventoryService) DeductForOrder(ctx context.Context, order *entity.Order, actor *uuid.UUID) DeductionResult {
	return s.DeductForItems(ctx, order.ID, order.ActiveItems(), actor)
}

// DeductForItems sums recipe requirements per distinct inventory item and books
// one usage entry each. Missing recipes and untracked ingredients are skipped.
// Failures are collected and logged, never returned to the caller.
func (s *InventoryService) DeductForItems(ctx context.Context, orderID uuid.UUID, items []entity.OrderItem, actor *uuid.UUID) DeductionResult {
	var result DeductionResult
	log := s.log.With().Str("order_id", orderID.String()).Logger()

	menuIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.Status == enum.ItemStatusCancelled {
			continue
		}
		if _, ok := seen[item.MenuItemID]; !ok {
			seen[item.MenuItemID] = struct{}{}
			menuIDs = append(menuIDs, item.MenuItemID)
		}
	}
	if len(menuIDs) == 0 {
		return result
	}

	menuItems, err := s.menuRepo.GetByIDs(ctx, menuIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to load recipes for deduction")
		result.Failures = append(result.Failures, DeductionFailure{Err: err})
		return result
	}
	recipes := make(map[uuid.UUID][]entity.RecipeIngredient, len(menuItems))
	for _, m := range menuItems {
		recipes[m.ID] = m.Recipe
	}

	required := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range items {
		if item.Status == enum.ItemStatusCancelled {
			continue
		}
		recipe, ok := recipes[item.MenuItemID]
		if !ok || len(recipe) == 0 {
			result.Skipped++
			continue
		}
		for _, ingredient := range recipe {
			if !ingredient.Tracked() || !ingredient.QuantityPerUnit.IsPositive() {
				continue
			}
			need := ingredient.QuantityPerUnit.Mul(decimal.NewFromInt(int64(item.Quantity)))
			id := *ingredient.InventoryItemID
			required[id] = required[id].Add(need)
		}
	}

	ids := make([]uuid.UUID, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeductions)
	for _, id := range ids {
		id, qty := id, required[id]
		g.Go(func() error {
			_, _, err := s.ApplyTransaction(gctx, &ApplyTransactionInput{
				ItemID:      id,
				Type:        enum.TransactionUsage,
				Quantity:    qty,
				Note:        "Order deduction",
				PerformedBy: actor,
				Source:      enum.TransactionSourceOrder,
				OrderID:     &orderID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, DeductionFailure{InventoryItemID: id, Quantity: qty, Err: err})
				log.Error().Err(err).Str("inventory_item_id", id.String()).Str("quantity", qty.String()).Msg("inventory deduction failed")
				return nil
			}
			result.Applied++
			return nil
		})
	}
	_ = g.Wait()

	if len(result.Failures) > 0 {
		log.Warn().Int("applied", result.Applied).Int("failed", len(result.Failures)).Msg("order deduction finished with failures")
	} else {
		log.Debug().Int("applied", result.Applied).Int("skipped", result.Skipped).Msg("order deduction finished")
	}
	return result
}
