package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"bakeshop/pkg/cart"
)

// PaymentMethod names the provider that confirmed the payment.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "stripe"
	PaymentMethodWallet PaymentMethod = "paypal"
)

// Valid reports whether the method is one of the two supported providers.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodWallet
}

// Draft is the bundle handed to order submission. It is built once at
// checkout submission and not kept afterwards.
type Draft struct {
	Items         []cart.Line     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Total         decimal.Decimal `json:"total"`
	Customer      CustomerInfo    `json:"customerInfo"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentID     string          `json:"paymentId"`
}

// NewDraft snapshots the cart with delivery-mode totals and the payment confirmation.
func NewDraft(c cart.Cart, totals Totals, customer CustomerInfo, method PaymentMethod, paymentID string) (Draft, error) {
	d := Draft{
		Items:         c.Lines(),
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		Customer:      customer,
		PaymentMethod: method,
		PaymentID:     paymentID,
	}
	if err := d.Validate(); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Validate checks what every submitted order must carry.
func (d Draft) Validate() error {
	if err := d.Customer.Validate(); err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return newValidationError("at least one item is required")
	}
	for _, item := range d.Items {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Name) == "" {
			return newValidationError("every item needs an id and a name")
		}
		if item.Quantity <= 0 {
			return newValidationError("item quantity must be positive")
		}
		if item.Price.IsNegative() {
			return newValidationError("item price cannot be negative")
		}
	}
	if d.Subtotal.IsNegative() || d.DeliveryFee.IsNegative() || d.Total.IsNegative() {
		return newValidationError("amounts cannot be negative")
	}
	if !d.PaymentMethod.Valid() {
		return newValidationError("payment method must be stripe or paypal")
	}
	if strings.TrimSpace(d.PaymentID) == "" {
		return newValidationError("payment confirmation id is required")
	}
	return nil
}
