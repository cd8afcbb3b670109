package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// RestaurantService handles restaurant (tenant) operations
type RestaurantService struct {
	restaurantRepo repository.RestaurantRepository
}

// NewRestaurantService creates a new restaurant service
func NewRestaurantService(restaurantRepo repository.RestaurantRepository) *RestaurantService {
	return &RestaurantService{restaurantRepo: restaurantRepo}
}

// CreateRestaurantInput represents input for creating a restaurant
type CreateRestaurantInput struct {
	Name              string
	Slug              string
	Currency          string
	TaxRate           decimal.Decimal
	ServiceChargeRate decimal.Decimal
	OrderNumberPrefix string
	Timezone          string
}

// CreateRestaurant creates a new restaurant. The slug defaults to the slugified name.
func (s *RestaurantService) CreateRestaurant(ctx context.Context, input *CreateRestaurantInput) (*entity.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "Name is required")
	}
	if err := validateRates(input.TaxRate, input.ServiceChargeRate); err != nil {
		return nil, err
	}
	timezone, err := normalizeTimezone(input.Timezone)
	if err != nil {
		return nil, err
	}

	slug := utils.Slugify(input.Slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}

	existing, err := s.restaurantRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Restaurant slug already exists")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "KES"
	}

	restaurant := &entity.Restaurant{
		Name:              name,
		Slug:              slug,
		Currency:          currency,
		TaxRate:           input.TaxRate,
		ServiceChargeRate: input.ServiceChargeRate,
		OrderNumberPrefix: strings.ToUpper(strings.TrimSpace(input.OrderNumberPrefix)),
		Timezone:          timezone,
	}
	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// GetRestaurant retrieves a restaurant by ID
func (s *RestaurantService) GetRestaurant(ctx context.Context, id uuid.UUID) (*entity.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, apperror.NewNotFoundError("Restaurant")
	}
	return restaurant, nil
}

// GetBySlug resolves the restaurant behind a public QR link
func (s *RestaurantService) GetBySlug(ctx context.Context, slug string) (*entity.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, apperror.NewNotFoundError("Restaurant")
	}
	return restaurant, nil
}

// UpdateRestaurantInput represents input for updating a restaurant.
// Rates apply to orders created afterwards, existing orders keep their snapshot.
type UpdateRestaurantInput struct {
	Name              *string
	Currency          *string
	TaxRate           *decimal.Decimal
	ServiceChargeRate *decimal.Decimal
	OrderNumberPrefix *string
	Timezone          *string
}

// UpdateRestaurant updates a restaurant
func (s *RestaurantService) UpdateRestaurant(ctx context.Context, id uuid.UUID, input *UpdateRestaurantInput) (*entity.Restaurant, error) {
	restaurant, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.NewFieldError("name", "Name cannot be empty")
		}
		restaurant.Name = name
	}
	if input.Currency != nil {
		restaurant.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.TaxRate != nil {
		restaurant.TaxRate = *input.TaxRate
	}
	if input.ServiceChargeRate != nil {
		restaurant.ServiceChargeRate = *input.ServiceChargeRate
	}
	if input.OrderNumberPrefix != nil {
		restaurant.OrderNumberPrefix = strings.ToUpper(strings.TrimSpace(*input.OrderNumberPrefix))
	}
	if input.Timezone != nil {
		timezone, err := normalizeTimezone(*input.Timezone)
		if err != nil {
			return nil, err
		}
		restaurant.Timezone = timezone
	}
	if err := validateRates(restaurant.TaxRate, restaurant.ServiceChargeRate); err != nil {
		return nil, err
	}

	if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

func validateRates(tax, service decimal.Decimal) error {
	hundred := decimal.NewFromInt(100)
	var fieldErrors []apperror.FieldError
	if tax.IsNegative() || tax.GreaterThan(hundred) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax_rate", Message: "Tax rate must be between 0 and 100"})
	}
	if service.IsNegative() || service.GreaterThan(hundred) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "service_charge_rate", Message: "Service charge rate must be between 0 and 100"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// normalizeTimezone checks an IANA zone name; blank means UTC
func normalizeTimezone(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", apperror.NewFieldError("timezone", "Unknown timezone "+name)
	}
	return name, nil
}
