package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/pagination"
	"github.com/sangkips/tableside-api/pkg/utils"
)

// UserService handles staff management for the restaurant on the context
type UserService struct {
	userRepo repository.UserRepository
	log      zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{userRepo: userRepo, log: log}
}

// CreateStaffInput represents a new staff account
type CreateStaffInput struct {
	Name     string
	Email    string
	Password string
	Role     enum.StaffRole
}

// CreateStaff adds a staff member to the caller's restaurant
func (s *UserService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*entity.User, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.ErrRestaurantRequired
	}

	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if !strings.Contains(input.Email, "@") {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(input.Password) < 8 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !input.Role.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "role", Message: "Unknown role"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Password:     hashed,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("staff member created")
	return user, nil
}

// ListStaff returns a paginated list of the restaurant's staff
func (s *UserService) ListStaff(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.User], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	users, total, err := s.userRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(users, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetUser returns a staff member of the caller's restaurant
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	restaurantID, _ := infraRepo.GetRestaurantID(ctx)
	if user == nil || user.RestaurantID != restaurantID {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateStaffInput changes a staff member's role or active flag
type UpdateStaffInput struct {
	Role     *enum.StaffRole
	IsActive *bool
}

// UpdateStaff updates the role or active flag of a staff member.
// Staff cannot change their own account here.
func (s *UserService) UpdateStaff(ctx context.Context, actorID, userID uuid.UUID, input *UpdateStaffInput) (*entity.User, error) {
	if actorID == userID {
		return nil, apperror.NewBadRequestError("You cannot change your own role or status")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, apperror.NewFieldError("role", "Unknown role")
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
