package utils

import "github.com/shopspring/decimal"

// RoundCents rounds an amount to two decimal places, half away from zero
func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// RoundWhole rounds an amount to the nearest whole unit, half away from zero
func RoundWhole(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(0).InexactFloat64()
}

// SubAmount returns a - b without binary floating point drift
func SubAmount(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// AddAmount returns a + b without binary floating point drift
func AddAmount(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// SumAmounts adds up amounts in decimal
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

// MinAmount returns the smaller of two amounts
func MinAmount(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// MaxAmount returns the larger of two amounts
func MaxAmount(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// FormatAmount renders an amount with two decimals for user-facing text
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
