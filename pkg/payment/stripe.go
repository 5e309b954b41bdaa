package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"bakeshop/pkg/money"
)

// StripeConfig holds the card provider credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the API base; empty means the live Stripe endpoint.
	APIURL string
}

// Stripe is the CardProcessor backed by stripe-go.
type Stripe struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// NewStripe builds a client with network retries disabled. Without a secret
// key every intent request fails with ErrNotConfigured.
func NewStripe(cfg StripeConfig, logger *zap.Logger) *Stripe {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stripe{webhookSecret: cfg.WebhookSecret, logger: logger}
	if cfg.SecretKey == "" {
		return s
	}
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	s.api = &client.API{}
	s.api.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return s
}

// CreateIntent creates a payment intent for an amount already in minor units.
func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if s.api == nil {
		return Intent{}, ErrNotConfigured
	}
	if req.AmountMinor <= 0 {
		return Intent{}, errors.New("payment amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = money.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	s.logger.Info("payment intent created", zap.String("payment_id", pi.ID), zap.Int64("amount", req.AmountMinor), zap.String("currency", currency))
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the payment intent id.
func (s *Stripe) ParseWebhook(payload []byte, signatureHeader string) (WebhookEvent, error) {
	if s.webhookSecret == "" {
		return WebhookEvent{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("verify webhook: %w", err)
	}

	out := WebhookEvent{Type: string(event.Type)}
	if event.Data == nil || !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.PaymentIntentID = pi.ID
	return out, nil
}
