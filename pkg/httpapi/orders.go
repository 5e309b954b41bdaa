package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bakeshop/pkg/checkout"
	"bakeshop/pkg/order"
	"bakeshop/pkg/payment"
)

// createOrder stores a paid checkout and clears the session cart. Lines and
// totals come from the session cart priced for the customer's city; the
// client only supplies its contact details and the payment confirmation.
// The cart is left alone when submission fails.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CustomerInfo  checkout.CustomerInfo  `json:"customerInfo"`
		PaymentMethod checkout.PaymentMethod `json:"paymentMethod"`
		PaymentID     string                 `json:"paymentId"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.logger.Info("order creation failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	session := sessionFrom(r)
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	if c.IsEmpty() {
		s.respondError(w, "cart is empty", http.StatusBadRequest)
		return
	}
	customer := payload.CustomerInfo
	totals, err := checkout.Compute(checkout.ModeDelivery, c.TotalPrice(), customer.City, customer.ZipCode)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	draft, err := checkout.NewDraft(c, totals, customer, payload.PaymentMethod, payload.PaymentID)
	if err != nil {
		if checkout.IsValidation(err) {
			s.logger.Info("order creation failed validation", zap.String("session", session), zap.Error(err))
			s.respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	stored, err := s.orders.Submit(ctx, draft)
	if err != nil {
		if order.IsValidation(err) {
			s.logger.Info("order creation failed validation", zap.String("session", session), zap.Error(err))
			s.respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("order creation failed", zap.String("session", session), zap.String("order_id", stored.ID), zap.Error(err))
		s.respondError(w, "Failed to process order", http.StatusInternalServerError)
		return
	}

	if s.metrics != nil {
		s.metrics.OrdersPlaced.WithLabelValues(string(stored.PaymentMethod)).Inc()
	}
	if err := s.carts.Clear(ctx, session); err != nil {
		s.logger.Warn("cart not cleared after order", zap.String("session", session), zap.String("order_id", stored.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": stored.ID})
}

// listOrders returns all collected orders for administrative oversight.
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.orders.List(ctx)
	if err != nil {
		s.logger.Error("order listing failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Debug("order listing served", zap.Int("orders", len(orders)))
	s.respondJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := s.orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.respondOrderError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	status, err := order.ParseStatus(payload.Status)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		s.respondOrderError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

// stripeWebhook applies asynchronous card outcomes to stored orders.
func (s *Server) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.card == nil {
		s.respondError(w, payment.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		s.respondError(w, "unreadable body", http.StatusBadRequest)
		return
	}
	event, err := s.card.ParseWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			s.respondError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		s.respondError(w, "Webhook signature verification failed", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch event.Type {
	case payment.EventPaymentSucceeded, payment.EventPaymentFailed:
		succeeded := event.Type == payment.EventPaymentSucceeded
		changed, err := s.orders.ApplyPaymentOutcome(ctx, event.PaymentIntentID, succeeded)
		if err != nil {
			s.logger.Error("webhook order update failed", zap.String("payment_id", event.PaymentIntentID), zap.Error(err))
			s.respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Info("payment outcome recorded",
			zap.String("event", event.Type),
			zap.String("payment_id", event.PaymentIntentID),
			zap.Int("orders_changed", changed),
		)
	default:
		s.logger.Debug("unhandled webhook event", zap.String("event", event.Type))
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		s.respondError(w, err.Error(), http.StatusNotFound)
	case order.IsValidation(err):
		s.respondError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("order request failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
	}
}
