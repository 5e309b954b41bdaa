// Package money holds the currency helpers shared by pricing, payments and
// rendering. Amounts stay decimal until a payment provider needs minor units.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the only transaction currency the storefront sells in.
const Currency = "usd"

func init() {
	// Storefront clients read prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ToMinorUnits converts a decimal amount to cents. It is the single rounding
// point between decimal totals and provider amounts.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Format renders an amount as dollars with two decimals.
func Format(amount decimal.Decimal) string {
	return fmt.Sprintf("$%s", amount.StringFixed(2))
}

// Fixed2 renders an amount with exactly two decimals and no symbol, the shape
// wallet providers expect in their amount.value field.
func Fixed2(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
