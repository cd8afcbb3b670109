package enum

// TransactionType is the kind of stock movement recorded in the ledger
type TransactionType string

const (
	TransactionPurchase   TransactionType = "purchase"
	TransactionUsage      TransactionType = "usage"
	TransactionWastage    TransactionType = "wastage"
	TransactionReturn     TransactionType = "return"
	TransactionAdjustment TransactionType = "adjustment"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionPurchase, TransactionUsage, TransactionWastage, TransactionReturn, TransactionAdjustment:
		return true
	}
	return false
}

// Decreases reports whether the movement removes stock
func (t TransactionType) Decreases() bool {
	return t == TransactionUsage || t == TransactionWastage || t == TransactionReturn
}

// TransactionSource tells manual stock edits apart from order-driven deductions
type TransactionSource string

const (
	TransactionSourceManual TransactionSource = "manual"
	TransactionSourceOrder  TransactionSource = "order"
)
