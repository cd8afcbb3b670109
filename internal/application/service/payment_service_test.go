package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// servedOrder returns a dine-in order for 2x10.00 that has reached status
func servedOrder(t *testing.T, f *fixture, status enum.OrderStatus) (*entity.Order, *entity.Table) {
	t.Helper()
	burger := f.dish(t, "Burger", 10)
	table := f.table(t, "T9")
	order := f.dineIn(t, table, OrderItemInput{MenuItemID: burger.ID, Quantity: 2})
	order, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, status, "", nil)
	require.NoError(t, err)
	return order, table
}

func TestPayment_InitializeRequiresReadyOrServed(t *testing.T) {
	f := newFixture(t, "0")
	tea := f.dish(t, "Tea", 1.5)
	order := f.dineIn(t, f.table(t, "T1"), OrderItemInput{MenuItemID: tea.ID, Quantity: 1})

	_, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "pending order: %v", err)

	_, err = f.payments.Initialize(f.ctx, uuid.New(), enum.PaymentMethodMobileMoney, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))

	_, err = f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethod("cheque"), nil)
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestPayment_InitializeRejectsSecondInFlightAttempt(t *testing.T) {
	f := newFixture(t, "0")
	order, _ := servedOrder(t, f, enum.OrderStatusReady)

	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatePending, payment.Status)
	assert.Equal(t, enum.VerificationNone, payment.VerificationStatus)
	assert.Equal(t, order.TotalAmount, payment.Amount)
	assert.Regexp(t, `^TXN-\d{8}-[0-9A-F]{8}$`, payment.TransactionID)

	_, err = f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodCard, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeConflict), "got %v", err)

	_, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "MPESA-QX12", "")
	require.NoError(t, err)
	_, err = f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodCard, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeConflict), "processing attempt still blocks")
}

func TestPayment_VerifyApprovalCompletesServedOrder(t *testing.T) {
	f := newFixture(t, "0")
	order, table := servedOrder(t, f, enum.OrderStatusServed)
	verifier := uuid.New()

	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)

	_, err = f.payments.Verify(f.ctx, payment.TransactionID, true, "", &verifier)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "no proof yet: %v", err)

	payment, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "  MPESA-QX12 ", "paid by phone")
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStateProcessing, payment.Status)
	assert.Equal(t, enum.VerificationPending, payment.VerificationStatus)
	assert.Equal(t, "MPESA-QX12", payment.ProofReference)

	payment, err = f.payments.Verify(f.ctx, payment.TransactionID, true, "matches statement", &verifier)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStateCompleted, payment.Status)
	assert.Equal(t, enum.VerificationVerified, payment.VerificationStatus)
	assert.Equal(t, payment.Amount, payment.AmountReceived)
	require.NotNil(t, payment.VerifiedBy)
	assert.Equal(t, verifier, *payment.VerifiedBy)

	paid, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderPaymentPaid, paid.PaymentStatus)
	assert.Equal(t, enum.OrderStatusCompleted, paid.Status)
	assert.Equal(t, enum.PaymentMethodMobileMoney, paid.PaymentMethod)
	assert.NotNil(t, paid.PaidAt)
	last := paid.History[len(paid.History)-1]
	assert.Equal(t, "Completed on payment", last.Note)
	assert.True(t, last.Auto)

	freed := f.reloadTable(t, table.ID)
	assert.Equal(t, enum.TableStatusAvailable, freed.Status)
	assert.Nil(t, freed.CurrentOrderID)

	_, err = f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodCard, nil)
	assert.Error(t, err, "a paid order takes no new payment")

	assert.GreaterOrEqual(t, f.events.Count(event.TopicPaymentStatusChanged), 3)
}

func TestPayment_PaidWhileReadyCompletesOnServing(t *testing.T) {
	f := newFixture(t, "0")
	order, table := servedOrder(t, f, enum.OrderStatusReady)

	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodBankTransfer, nil)
	require.NoError(t, err)
	_, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "BANK-REF-7", "")
	require.NoError(t, err)
	_, err = f.payments.Verify(f.ctx, payment.TransactionID, true, "", nil)
	require.NoError(t, err)

	paid, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReady, paid.Status, "ready orders wait to be served")
	assert.Equal(t, enum.OrderPaymentPaid, paid.PaymentStatus)

	served, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, served.Status)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)
}

func TestPayment_RejectionLeavesOrderUnpaid(t *testing.T) {
	f := newFixture(t, "0")
	order, _ := servedOrder(t, f, enum.OrderStatusServed)

	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)
	_, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "FAKE-1", "")
	require.NoError(t, err)

	payment, err = f.payments.Verify(f.ctx, payment.TransactionID, false, "no such transfer", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStateFailed, payment.Status)
	assert.Equal(t, enum.VerificationRejected, payment.VerificationStatus)
	assert.Equal(t, "no such transfer", payment.FailureReason)

	unpaid, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderPaymentPending, unpaid.PaymentStatus)
	assert.Equal(t, enum.OrderStatusServed, unpaid.Status)

	// A failed attempt no longer blocks a retry
	_, err = f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodCard, nil)
	require.NoError(t, err)

	attempts, err := f.payments.GetPaymentsForOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestPayment_RecordProofValidation(t *testing.T) {
	f := newFixture(t, "0")
	order, _ := servedOrder(t, f, enum.OrderStatusServed)
	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)

	_, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "   ", "")
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))

	_, err = f.payments.RecordProof(f.ctx, "TXN-00000000-DEADBEEF", "REF", "")
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestPayment_ConfirmCashSupersedesInFlightAttempts(t *testing.T) {
	f := newFixture(t, "0")
	order, table := servedOrder(t, f, enum.OrderStatusServed)
	cashier := uuid.New()

	pending, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)

	_, err = f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: order.ID, Amount: 15, ReceivedBy: &cashier})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation), "short by 5.00: %v", err)

	cash, err := f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: order.ID, Amount: 25, Notes: "table 9", ReceivedBy: &cashier})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentMethodCash, cash.Method)
	assert.Equal(t, enum.PaymentStateCompleted, cash.Status)
	assert.Equal(t, enum.VerificationVerified, cash.VerificationStatus)
	assert.Equal(t, int64(2000), cash.Amount)
	assert.Equal(t, int64(2500), cash.AmountReceived)
	assert.Equal(t, int64(500), cash.ChangeGiven)

	superseded, err := f.payments.GetPayment(f.ctx, pending.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStateFailed, superseded.Status)
	assert.Equal(t, "superseded by cash payment", superseded.FailureReason)

	paid, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, paid.Status)
	assert.Equal(t, enum.OrderPaymentPaid, paid.PaymentStatus)
	assert.Equal(t, enum.PaymentMethodCash, paid.PaymentMethod)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)

	_, err = f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: order.ID, Amount: 20})
	assert.Error(t, err, "completed orders cannot be paid twice")
}

func TestPayment_ConfirmCashValidation(t *testing.T) {
	f := newFixture(t, "0")
	_, err := f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: uuid.New(), Amount: 0})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))

	_, err = f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: uuid.New(), Amount: 10})
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestPayment_PaidOrderTakesNoNewItems(t *testing.T) {
	f := newFixture(t, "0")
	order, table := servedOrder(t, f, enum.OrderStatusReady)
	burger := order.Items[0].MenuItemID

	_, err := f.payments.ConfirmCash(f.ctx, &ConfirmCashInput{OrderID: order.ID, Amount: 20})
	require.NoError(t, err)

	_, err = f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: burger, Quantity: 1}}, nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	served, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, served.Status)
	assert.Equal(t, int64(2000), served.TotalAmount)
	assert.Len(t, served.ActiveItems(), 1)
	assert.Equal(t, enum.TableStatusAvailable, f.reloadTable(t, table.ID).Status)
}

func TestPayment_VerifyRefusesAttemptBelowCurrentTotal(t *testing.T) {
	f := newFixture(t, "0")
	order, _ := servedOrder(t, f, enum.OrderStatusServed)
	burger := order.Items[0].MenuItemID

	payment, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), payment.Amount)

	grown, err := f.orders.AddItems(f.ctx, order.ID, []OrderItemInput{{MenuItemID: burger, Quantity: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), grown.TotalAmount)

	_, err = f.payments.RecordProof(f.ctx, payment.TransactionID, "MPESA-QX12", "")
	require.NoError(t, err)

	_, err = f.payments.Verify(f.ctx, payment.TransactionID, true, "", nil)
	assert.True(t, apperror.IsType(err, apperror.TypeInvalidStateTransition), "got %v", err)

	stale, err := f.payments.GetPayment(f.ctx, payment.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStateProcessing, stale.Status, "short attempt stays open for review")

	unpaid, err := f.orders.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderPaymentPending, unpaid.PaymentStatus)
	assert.Equal(t, enum.OrderStatusInProgress, unpaid.Status)

	_, err = f.payments.Verify(f.ctx, payment.TransactionID, false, "order grew", nil)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(f.ctx, order.ID, enum.OrderStatusServed, "", nil)
	require.NoError(t, err)
	retry, err := f.payments.Initialize(f.ctx, order.ID, enum.PaymentMethodMobileMoney, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), retry.Amount)
}
