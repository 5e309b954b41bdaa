package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/catalog"
	"bakeshop/pkg/checkout"
)

// cartResponse is the cart as the page renders it.
type cartResponse struct {
	Items                 []cart.Line      `json:"items"`
	ItemCount             int              `json:"itemCount"`
	Summary               checkout.Totals  `json:"summary"`
	FreeShippingRemaining *decimal.Decimal `json:"freeShippingRemaining,omitempty"`
}

func (s *Server) cartView(c cart.Cart, r *http.Request) cartResponse {
	subtotal := c.TotalPrice()
	q := r.URL.Query()
	summary, err := checkout.Compute(s.cartMode, subtotal, q.Get("city"), q.Get("zip"))
	if err != nil {
		// cartMode is validated at start-up.
		summary = checkout.Totals{Subtotal: subtotal, Total: subtotal}
	}
	resp := cartResponse{
		Items:     c.Lines(),
		ItemCount: c.Units(),
		Summary:   summary,
	}
	if s.cartMode == checkout.ModeTaxShipping {
		remaining := checkout.FreeShippingRemaining(subtotal)
		if remaining.IsPositive() {
			resp.FreeShippingRemaining = &remaining
		}
	}
	return resp
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, s.cartView(c, r))
}

// addCartItem adds one unit of a catalog item.
func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.ID) == "" {
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}
	s.mutateCart(w, r, "add", payload.ID, func(ctx context.Context, session string) (cart.Cart, error) {
		return s.carts.Add(ctx, session, payload.ID)
	})
}

// removeCartItem takes one unit away, dropping the line at zero.
func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutateCart(w, r, "remove", id, func(ctx context.Context, session string) (cart.Cart, error) {
		return s.carts.Remove(ctx, session, id)
	})
}

// setCartItem sets an absolute quantity; zero or less removes the line.
func (s *Server) setCartItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload struct {
		Quantity *int `json:"quantity"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.Quantity == nil {
		s.respondError(w, "quantity is required", http.StatusBadRequest)
		return
	}
	s.mutateCart(w, r, "set", id, func(ctx context.Context, session string) (cart.Cart, error) {
		return s.carts.SetQuantity(ctx, session, id, *payload.Quantity)
	})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mutateCart(w, r, "clear", "", func(ctx context.Context, session string) (cart.Cart, error) {
		return cart.Cart{}, s.carts.Clear(ctx, session)
	})
}

func (s *Server) mutateCart(w http.ResponseWriter, r *http.Request, op, itemID string, apply func(context.Context, string) (cart.Cart, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	session := sessionFrom(r)
	c, err := apply(ctx, session)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("cart update failed", zap.String("op", op), zap.String("session", session), zap.String("item_id", itemID), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.CartChanges.WithLabelValues(op).Inc()
	}
	s.logger.Debug("cart updated", zap.String("op", op), zap.String("session", session), zap.String("item_id", itemID), zap.Int("units", c.Units()))
	s.respondJSON(w, http.StatusOK, s.cartView(c, r))
}
