// Package checkout turns a cart into the amount a customer is charged.
//
// Two total formulas exist side by side: the checkout page charges
// subtotal plus the city delivery fee, while the cart page previews tax and a
// flat shipping charge. They are kept as separate modes.
package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bakeshop/pkg/delivery"
	"bakeshop/pkg/money"
)

// Mode selects which total formula applies.
type Mode string

const (
	// ModeDelivery charges subtotal + delivery fee for the customer's city.
	ModeDelivery Mode = "delivery"
	// ModeTaxShipping charges subtotal + 8% tax + shipping, free above $50.
	ModeTaxShipping Mode = "tax-shipping"
)

var (
	// TaxRate applies to the subtotal in ModeTaxShipping.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold must be exceeded, not met, for free shipping.
	FreeShippingThreshold = decimal.NewFromInt(50)
	// ShippingFee is charged at or below the threshold.
	ShippingFee = decimal.RequireFromString("5.99")
)

// ParseMode maps query values to a Mode; empty selects ModeDelivery.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeDelivery:
		return ModeDelivery, nil
	case ModeTaxShipping, "tax":
		return ModeTaxShipping, nil
	default:
		return "", fmt.Errorf("unknown checkout mode %q", raw)
	}
}

// Totals is the breakdown for one mode. Fields that do not apply to the mode are zero.
type Totals struct {
	Mode        Mode            `json:"mode"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tax         decimal.Decimal `json:"tax"`
	Shipping    decimal.Decimal `json:"shipping"`
	Total       decimal.Decimal `json:"total"`
}

// Compute applies the formula for mode. city and zipCode only matter for ModeDelivery.
func Compute(mode Mode, subtotal decimal.Decimal, city, zipCode string) (Totals, error) {
	t := Totals{Mode: mode, Subtotal: subtotal}
	switch mode {
	case ModeDelivery:
		t.DeliveryFee = delivery.Fee(city, zipCode)
		t.Total = subtotal.Add(t.DeliveryFee)
	case ModeTaxShipping:
		t.Tax = subtotal.Mul(TaxRate)
		t.Shipping = Shipping(subtotal)
		t.Total = subtotal.Add(t.Tax).Add(t.Shipping)
	default:
		return Totals{}, fmt.Errorf("unknown checkout mode %q", mode)
	}
	return t, nil
}

// Shipping is free strictly above the threshold.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}

// FreeShippingRemaining is how much more the customer must spend to reach
// the free-shipping threshold; zero once the subtotal reaches it.
func FreeShippingRemaining(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FreeShippingThreshold.Sub(subtotal)
}

// MinorUnits is the amount handed to the card processor: the decimal total
// rounded to cents exactly once.
func (t Totals) MinorUnits() int64 {
	return money.ToMinorUnits(t.Total)
}
