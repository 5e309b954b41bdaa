// Package payment talks to the card and wallet providers that confirm a
// checkout before the order is submitted. Calls are made once; nothing here
// retries or attaches idempotency keys.
package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"bakeshop/pkg/checkout"
	"bakeshop/pkg/money"
)

// ErrNotConfigured is returned by providers started without credentials.
var ErrNotConfigured = errors.New("payment provider is not configured")

// IntentRequest asks the card provider for a payment intent.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// Intent is the provider's answer; the client secret is handed to the browser.
type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent is the part of a card webhook the order service cares about.
type WebhookEvent struct {
	Type            string
	PaymentIntentID string
}

// Card webhook event types that change an order.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// CardProcessor creates card payment intents and verifies their webhooks.
type CardProcessor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	ParseWebhook(payload []byte, signatureHeader string) (WebhookEvent, error)
}

// WalletRequest asks the wallet provider to open an order for the checkout total.
type WalletRequest struct {
	Total     decimal.Decimal
	ItemCount int
}

// Capture reports a captured wallet order.
type Capture struct {
	OrderID   string
	Status    string
	CaptureID string
}

// WalletProcessor opens and captures wallet orders.
type WalletProcessor interface {
	CreateOrder(ctx context.Context, req WalletRequest) (string, error)
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
}

// IntentMetadata builds the metadata bag attached to every card intent.
// itemCount is the number of distinct cart lines.
func IntentMetadata(customer checkout.CustomerInfo, total decimal.Decimal, itemCount int) map[string]string {
	return map[string]string{
		"customerName":   customer.Name,
		"customerEmail":  customer.Email,
		"customerPhone":  customer.Phone,
		"deliveryMethod": string(customer.Method()),
		"orderTotal":     money.Fixed2(total),
		"itemCount":      strconv.Itoa(itemCount),
	}
}
