package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	// GetByTransactionIDForUpdate locks the payment row for the transaction
	GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error)
	// FindByOrderAndStatus returns the newest payment for the order in any of the given states
	FindByOrderAndStatus(ctx context.Context, orderID uuid.UUID, statuses ...enum.PaymentState) (*entity.Payment, error)
	// FailInFlight marks pending and processing payments for the order as failed
	FailInFlight(ctx context.Context, orderID uuid.UUID, reason string) (int64, error)
}
