package request

import "github.com/shopspring/decimal"

// UpdateRestaurantRequest edits restaurant settings; omitted fields are left as they are
type UpdateRestaurantRequest struct {
	Name              *string          `json:"name" binding:"omitempty,max=255"`
	Currency          *string          `json:"currency" binding:"omitempty,len=3"`
	TaxRate           *decimal.Decimal `json:"tax_rate"`
	ServiceChargeRate *decimal.Decimal `json:"service_charge_rate"`
	OrderNumberPrefix *string          `json:"order_number_prefix" binding:"omitempty,max=10"`
	Timezone          *string          `json:"timezone" binding:"omitempty,max=64"`
}
