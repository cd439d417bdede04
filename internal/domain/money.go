package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the minor-unit precision of every stored amount.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two decimal places.
// For the non-negative amounts handled here that is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ToMinorUnits converts an amount to the smallest currency unit (cents).
func ToMinorUnits(d decimal.Decimal) int64 {
	return RoundMoney(d).Mul(hundred).IntPart()
}

// Percent returns pct percent of amount, rounded to minor units.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(pct).Div(hundred))
}
