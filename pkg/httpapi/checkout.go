package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/checkout"
	"bakeshop/pkg/delivery"
	"bakeshop/pkg/money"
	"bakeshop/pkg/payment"
)

// paymentTimeout bounds a single provider call.
const paymentTimeout = 15 * time.Second

func (s *Server) deliveryFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"city":    q.Get("city"),
		"zipCode": q.Get("zip"),
		"fee":     delivery.Fee(q.Get("city"), q.Get("zip")),
	})
}

func (s *Server) deliveryZones(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, delivery.Zones())
}

// checkoutSummary prices the session cart in the requested mode (delivery by default).
func (s *Server) checkoutSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := checkout.ParseMode(q.Get("mode"))
	if err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	totals, err := checkout.Compute(mode, c.TotalPrice(), q.Get("city"), q.Get("zip"))
	if err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.respondJSON(w, http.StatusOK, struct {
		checkout.Totals
		AmountMinor int64 `json:"amountMinor"`
		ItemCount   int   `json:"itemCount"`
	}{totals, totals.MinorUnits(), c.Units()})
}

// createPaymentIntent charges the session cart plus the delivery fee for the
// customer's city. The amount is computed here, never taken from the client.
func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Currency     string                `json:"currency"`
		CustomerInfo checkout.CustomerInfo `json:"customerInfo"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := payload.CustomerInfo.Validate(); err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	if c.IsEmpty() {
		s.respondError(w, "cart is empty", http.StatusBadRequest)
		return
	}
	if s.card == nil {
		s.respondError(w, payment.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		return
	}

	customer := payload.CustomerInfo
	totals, err := checkout.Compute(checkout.ModeDelivery, c.TotalPrice(), customer.City, customer.ZipCode)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()
	intent, err := s.card.CreateIntent(ctx, payment.IntentRequest{
		AmountMinor: totals.MinorUnits(),
		Currency:    payload.Currency,
		Metadata:    payment.IntentMetadata(customer, totals.Total, c.Len()),
	})
	if err != nil {
		s.logger.Error("payment intent failed", zap.String("session", sessionFrom(r)), zap.Int64("amount", totals.MinorUnits()), zap.Error(err))
		s.respondProviderError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
		"amount":          totals.MinorUnits(),
		"total":           totals.Total,
		"deliveryFee":     totals.DeliveryFee,
	})
}

// createWalletOrder opens a wallet order for the session cart plus the delivery fee.
func (s *Server) createWalletOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		City    string `json:"city"`
		ZipCode string `json:"zipCode"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	if c.IsEmpty() {
		s.respondError(w, "cart is empty", http.StatusBadRequest)
		return
	}
	if s.wallet == nil {
		s.respondError(w, payment.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		return
	}
	totals, err := checkout.Compute(checkout.ModeDelivery, c.TotalPrice(), payload.City, payload.ZipCode)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()
	id, err := s.wallet.CreateOrder(ctx, payment.WalletRequest{Total: totals.Total, ItemCount: c.Len()})
	if err != nil {
		s.logger.Error("wallet order failed", zap.String("session", sessionFrom(r)), zap.String("amount", money.Fixed2(totals.Total)), zap.Error(err))
		s.respondProviderError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "total": totals.Total})
}

func (s *Server) captureWalletOrder(w http.ResponseWriter, r *http.Request) {
	if s.wallet == nil {
		s.respondError(w, payment.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	id := mux.Vars(r)["id"]
	captured, err := s.wallet.CaptureOrder(ctx, id)
	if err != nil {
		s.logger.Error("wallet capture failed", zap.String("payment_id", id), zap.Error(err))
		s.respondProviderError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"orderId":   captured.OrderID,
		"status":    captured.Status,
		"captureId": captured.CaptureID,
	})
}

func (s *Server) respondProviderError(w http.ResponseWriter, err error) {
	if errors.Is(err, payment.ErrNotConfigured) {
		s.respondError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.respondError(w, err.Error(), http.StatusBadGateway)
}

func (s *Server) loadCart(w http.ResponseWriter, r *http.Request) (cart.Cart, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	c, err := s.carts.Get(ctx, sessionFrom(r))
	if err != nil {
		s.logger.Error("cart load failed", zap.String("session", sessionFrom(r)), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return cart.Cart{}, false
	}
	return c, true
}
