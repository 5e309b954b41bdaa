package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"bakeshop/pkg/money"
)

// PayPal API bases.
const (
	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

// PayPalConfig holds the wallet provider credentials.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	// HTTPClient is used for both token and API calls; nil means a client with a 15s timeout.
	HTTPClient *http.Client
}

// PayPal is the WalletProcessor backed by the Orders v2 REST API.
type PayPal struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPayPal wires an OAuth2 client-credentials token source in front of the API client.
func NewPayPal(cfg PayPalConfig, logger *zap.Logger) *PayPal {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PayPal{baseURL: strings.TrimRight(cfg.BaseURL, "/"), logger: logger}
	if p.baseURL == "" {
		p.baseURL = PayPalSandboxURL
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return p
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     p.baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	p.client = &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: cc.TokenSource(tokenCtx),
			Base:   base.Transport,
		},
	}
	return p
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      paypalAmount `json:"amount"`
	Description string       `json:"description,omitempty"`
	Payments    *struct {
		Captures []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"captures"`
	} `json:"payments,omitempty"`
}

type paypalOrder struct {
	Intent        string         `json:"intent,omitempty"`
	ID            string         `json:"id,omitempty"`
	Status        string         `json:"status,omitempty"`
	PurchaseUnits []purchaseUnit `json:"purchase_units,omitempty"`
}

// CreateOrder opens a CAPTURE-intent order for the checkout total in USD.
func (p *PayPal) CreateOrder(ctx context.Context, req WalletRequest) (string, error) {
	if p.client == nil {
		return "", ErrNotConfigured
	}
	if !req.Total.IsPositive() {
		return "", errors.New("wallet order total must be positive")
	}
	body := paypalOrder{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount:      paypalAmount{CurrencyCode: "USD", Value: money.Fixed2(req.Total)},
			Description: fmt.Sprintf("Bakery Order - %d items", req.ItemCount),
		}},
	}
	var created paypalOrder
	if err := p.post(ctx, "/v2/checkout/orders", body, &created); err != nil {
		return "", fmt.Errorf("create wallet order: %w", err)
	}
	p.logger.Info("wallet order created", zap.String("payment_id", created.ID), zap.String("amount", body.PurchaseUnits[0].Amount.Value))
	return created.ID, nil
}

// CaptureOrder captures a buyer-approved wallet order.
func (p *PayPal) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	if p.client == nil {
		return Capture{}, ErrNotConfigured
	}
	if strings.TrimSpace(orderID) == "" {
		return Capture{}, errors.New("wallet order id is required")
	}
	var captured paypalOrder
	if err := p.post(ctx, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", nil, &captured); err != nil {
		return Capture{}, fmt.Errorf("capture wallet order %s: %w", orderID, err)
	}
	out := Capture{OrderID: captured.ID, Status: captured.Status}
	for _, unit := range captured.PurchaseUnits {
		if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
			out.CaptureID = unit.Payments.Captures[0].ID
			break
		}
	}
	p.logger.Info("wallet order captured", zap.String("payment_id", out.OrderID), zap.String("status", out.Status))
	return out, nil
}

func (p *PayPal) post(ctx context.Context, path string, in, out any) error {
	var payload io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}
