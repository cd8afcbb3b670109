package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/sangkips/tableside-api/pkg/utils"
)

// PaymentService records payment attempts and the manual verification workflow
type PaymentService struct {
	tx          repository.TxManager
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	orders      *OrderService
	events      event.Sink
	log         zerolog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	tx repository.TxManager,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	orders *OrderService,
	events event.Sink,
	log zerolog.Logger,
) *PaymentService {
	if events == nil {
		events = event.NopSink{}
	}
	return &PaymentService{
		tx:          tx,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		orders:      orders,
		events:      events,
		log:         log,
	}
}

// lockPayable locks the order and checks it can take a payment
func (s *PaymentService) lockPayable(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if order.Status != enum.OrderStatusReady && order.Status != enum.OrderStatusServed {
		return nil, apperror.NewInvalidStateTransitionError("Order %s is %s, payment opens once it is ready or served", order.OrderNumber, order.Status)
	}
	if order.PaymentStatus == enum.OrderPaymentPaid {
		return nil, apperror.NewConflictError("Order " + order.OrderNumber + " is already paid")
	}
	return order, nil
}

// Initialize opens a payment attempt for the order's current total
func (s *PaymentService) Initialize(ctx context.Context, orderID uuid.UUID, method enum.PaymentMethod, actor *uuid.UUID) (*entity.Payment, error) {
	if !method.IsValid() {
		return nil, apperror.NewFieldError("method", "Unknown payment method")
	}

	var payment *entity.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.lockPayable(ctx, orderID)
		if err != nil {
			return err
		}

		existing, err := s.paymentRepo.FindByOrderAndStatus(ctx, order.ID,
			enum.PaymentStatePending, enum.PaymentStateProcessing, enum.PaymentStateCompleted)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflictError("Order " + order.OrderNumber + " already has a " + string(existing.Status) + " payment " + existing.TransactionID)
		}

		payment = &entity.Payment{
			RestaurantID:       order.RestaurantID,
			OrderID:            order.ID,
			TransactionID:      utils.GenerateTransactionID(time.Now().UTC()),
			Method:             method,
			Amount:             order.TotalAmount,
			Status:             enum.PaymentStatePending,
			VerificationStatus: enum.VerificationNone,
			ReceivedBy:         actor,
		}
		return s.paymentRepo.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.events.Notify(event.TopicPaymentStatusChanged, event.NewPayload(payment.RestaurantID, payment))
	return payment, nil
}

// RecordProof attaches the customer's proof of payment and queues it for verification
func (s *PaymentService) RecordProof(ctx context.Context, transactionID, proofRef, notes string) (*entity.Payment, error) {
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return nil, apperror.NewFieldError("proof_reference", "Proof reference is required")
	}

	var payment *entity.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.GetByTransactionIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}
		if !payment.Status.InFlight() {
			return apperror.NewInvalidStateTransitionError("Payment %s is %s", payment.TransactionID, payment.Status)
		}

		payment.ProofReference = proofRef
		payment.Notes = strings.TrimSpace(notes)
		payment.Status = enum.PaymentStateProcessing
		payment.VerificationStatus = enum.VerificationPending
		return s.paymentRepo.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.events.Notify(event.TopicPaymentStatusChanged, event.NewPayload(payment.RestaurantID, payment))
	return payment, nil
}

// Verify approves or rejects a payment awaiting review. Approval marks the
// order paid and completes it if it has been served.
func (s *PaymentService) Verify(ctx context.Context, transactionID string, approve bool, notes string, actor *uuid.UUID) (*entity.Payment, error) {
	// Locks are taken order first, then payment, same as ConfirmCash
	current, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}

	var batch event.Batch
	var payment *entity.Payment

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, current.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperror.NewNotFoundError("Order")
		}

		payment, err = s.paymentRepo.GetByTransactionIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}
		if payment.Status != enum.PaymentStateProcessing || payment.VerificationStatus != enum.VerificationPending {
			return apperror.NewInvalidStateTransitionError("Payment %s is not awaiting verification", payment.TransactionID)
		}

		now := time.Now().UTC()
		payment.VerifiedBy = actor
		payment.VerifiedAt = &now
		payment.VerificationNotes = strings.TrimSpace(notes)

		if !approve {
			payment.Status = enum.PaymentStateFailed
			payment.VerificationStatus = enum.VerificationRejected
			payment.FailureReason = payment.VerificationNotes
			batch.Add(event.TopicPaymentStatusChanged, payment.RestaurantID, payment)
			return s.paymentRepo.Update(ctx, payment)
		}

		// Items may have been added after the attempt was opened
		if payment.Amount < order.TotalAmount {
			return apperror.NewInvalidStateTransitionError(
				"Payment %s covers %.2f of the %.2f now due, reject it and start a new payment",
				payment.TransactionID, entity.CentsToAmount(payment.Amount), entity.CentsToAmount(order.TotalAmount),
			)
		}

		payment.Status = enum.PaymentStateCompleted
		payment.VerificationStatus = enum.VerificationVerified
		if payment.AmountReceived == 0 {
			payment.AmountReceived = payment.Amount
		}
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}
		batch.Add(event.TopicPaymentStatusChanged, payment.RestaurantID, payment)

		_, err = s.orders.MarkOrderPaid(ctx, order.ID, payment.Method, actor, &batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", payment.TransactionID).
		Str("status", string(payment.Status)).
		Msg("payment verified")

	batch.Flush(s.events)
	return payment, nil
}

// ConfirmCashInput represents an in-person cash settlement
type ConfirmCashInput struct {
	OrderID    uuid.UUID
	Amount     float64
	Notes      string
	ReceivedBy *uuid.UUID
}

// ConfirmCash settles an order in cash without the proof step. Any payment
// still pending or processing for the order is failed as superseded.
func (s *PaymentService) ConfirmCash(ctx context.Context, input *ConfirmCashInput) (*entity.Payment, error) {
	if input.Amount <= 0 {
		return nil, apperror.NewFieldError("amount", "Amount must be greater than zero")
	}
	received := entity.AmountToCents(input.Amount)

	var batch event.Batch
	var payment *entity.Payment

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.lockPayable(ctx, input.OrderID)
		if err != nil {
			return err
		}

		completed, err := s.paymentRepo.FindByOrderAndStatus(ctx, order.ID, enum.PaymentStateCompleted)
		if err != nil {
			return err
		}
		if completed != nil {
			return apperror.NewConflictError("Order " + order.OrderNumber + " already has a completed payment")
		}
		if received < order.TotalAmount {
			return apperror.NewFieldError("amount", "Amount received is less than the order total")
		}

		superseded, err := s.paymentRepo.FailInFlight(ctx, order.ID, "superseded by cash payment")
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.log.Info().Str("order_id", order.ID.String()).Int64("payments", superseded).Msg("in-flight payments superseded")
		}

		now := time.Now().UTC()
		payment = &entity.Payment{
			RestaurantID:       order.RestaurantID,
			OrderID:            order.ID,
			TransactionID:      utils.GenerateTransactionID(now),
			Method:             enum.PaymentMethodCash,
			Amount:             order.TotalAmount,
			AmountReceived:     received,
			ChangeGiven:        received - order.TotalAmount,
			Status:             enum.PaymentStateCompleted,
			VerificationStatus: enum.VerificationVerified,
			Notes:              strings.TrimSpace(input.Notes),
			ReceivedBy:         input.ReceivedBy,
			VerifiedBy:         input.ReceivedBy,
			VerifiedAt:         &now,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}
		batch.Add(event.TopicPaymentStatusChanged, payment.RestaurantID, payment)

		_, err = s.orders.MarkOrderPaid(ctx, order.ID, enum.PaymentMethodCash, input.ReceivedBy, &batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(s.events)
	return payment, nil
}

// GetPayment returns a payment by transaction id
func (s *PaymentService) GetPayment(ctx context.Context, transactionID string) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}

// GetPaymentsForOrder lists every attempt for the order, newest first
func (s *PaymentService) GetPaymentsForOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return s.paymentRepo.ListByOrder(ctx, orderID)
}
