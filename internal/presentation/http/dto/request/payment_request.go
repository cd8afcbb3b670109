package request

import "github.com/google/uuid"

// InitializePaymentRequest opens a payment attempt for an order
type InitializePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Method  string    `json:"method" binding:"required,oneof=cash card mobile_money bank_transfer"`
}

// RecordProofRequest attaches a proof of payment
type RecordProofRequest struct {
	ProofReference string `json:"proof_reference" binding:"required,max=500"`
	Notes          string `json:"notes"`
}

// VerifyPaymentRequest approves or rejects a payment awaiting review
type VerifyPaymentRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes"`
}

// ConfirmCashRequest settles an order in cash
type ConfirmCashRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Amount  float64   `json:"amount" binding:"required,gt=0"`
	Notes   string    `json:"notes"`
}
