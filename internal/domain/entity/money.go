package entity

import "github.com/shopspring/decimal"

// Money is stored in cents. These helpers convert at the API boundary.

// CentsToAmount converts cents to a decimal amount for API responses
func CentsToAmount(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// AmountToCents converts a decimal amount to cents, rounding half away from zero
func AmountToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// PercentOf returns round(cents * rate / 100)
func PercentOf(cents int64, rate decimal.Decimal) int64 {
	if rate.IsZero() || cents == 0 {
		return 0
	}
	return decimal.NewFromInt(cents).Mul(rate).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}
