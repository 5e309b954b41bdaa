package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/catalog"
	"bakeshop/pkg/checkout"
	"bakeshop/pkg/delivery"
	"bakeshop/pkg/metrics"
	"bakeshop/pkg/order"
	"bakeshop/pkg/payment"
	"bakeshop/pkg/version"
)

// uiFS packs the storefront page so deployments ship one binary.
//
//go:embed public_html/app.gohtml
var uiFS embed.FS

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the collaborators the HTTP layer fronts.
type Options struct {
	Catalog *catalog.Catalog
	Carts   *cart.Store
	Orders  *order.Service
	Card    payment.CardProcessor
	Wallet  payment.WalletProcessor
	DB      Pinger
	Metrics *metrics.ServerMetrics
	Logger  *zap.Logger
	// CartMode selects the totals shown next to the cart.
	CartMode             checkout.Mode
	StripePublishableKey string
	PayPalClientID       string
	// AdminToken is the bearer token for the order administration routes.
	AdminToken string
}

// Server wires HTTP endpoints to the cart store, the order service and the payment providers.
type Server struct {
	catalog        *catalog.Catalog
	carts          *cart.Store
	orders         *order.Service
	card           payment.CardProcessor
	wallet         payment.WalletProcessor
	db             Pinger
	metrics        *metrics.ServerMetrics
	logger         *zap.Logger
	page           *template.Template
	cartMode       checkout.Mode
	stripeKey      string
	paypalClientID string
	adminToken     string
}

// New prepares the template once.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Carts == nil || opts.Orders == nil {
		return nil, errors.New("httpapi: catalog, carts and orders are required")
	}
	tmpl, err := template.ParseFS(uiFS, "public_html/app.gohtml")
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.CartMode
	if mode == "" {
		mode = checkout.ModeTaxShipping
	}
	return &Server{
		catalog:        opts.Catalog,
		carts:          opts.Carts,
		orders:         opts.Orders,
		card:           opts.Card,
		wallet:         opts.Wallet,
		db:             opts.DB,
		metrics:        opts.Metrics,
		logger:         logger,
		page:           tmpl,
		cartMode:       mode,
		stripeKey:      opts.StripePublishableKey,
		paypalClientID: opts.PayPalClientID,
		adminToken:     opts.AdminToken,
	}, nil
}

// Handler exposes the router with the storefront page, the JSON API and operational endpoints.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Use(s.metrics.Middleware(routeLabel))
	}

	r.Handle("/", s.withSession(s.storefront)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", s.listCatalog).Methods(http.MethodGet)
	api.HandleFunc("/catalog/categories", s.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{id}", s.getCatalogItem).Methods(http.MethodGet)

	api.Handle("/cart", s.withSession(s.getCart)).Methods(http.MethodGet)
	api.Handle("/cart", s.withSession(s.clearCart)).Methods(http.MethodDelete)
	api.Handle("/cart/items", s.withSession(s.addCartItem)).Methods(http.MethodPost)
	api.Handle("/cart/items/{id}", s.withSession(s.removeCartItem)).Methods(http.MethodDelete)
	api.Handle("/cart/items/{id}", s.withSession(s.setCartItem)).Methods(http.MethodPut)

	api.HandleFunc("/delivery-fee", s.deliveryFee).Methods(http.MethodGet)
	api.HandleFunc("/delivery-zones", s.deliveryZones).Methods(http.MethodGet)
	api.Handle("/checkout/summary", s.withSession(s.checkoutSummary)).Methods(http.MethodGet)
	api.Handle("/create-payment-intent", s.withSession(s.createPaymentIntent)).Methods(http.MethodPost)
	api.Handle("/wallet/orders", s.withSession(s.createWalletOrder)).Methods(http.MethodPost)
	api.HandleFunc("/wallet/orders/{id}/capture", s.captureWalletOrder).Methods(http.MethodPost)

	api.Handle("/orders", s.withSession(s.createOrder)).Methods(http.MethodPost)
	api.HandleFunc("/webhook/stripe", s.stripeWebhook).Methods(http.MethodPost)

	admin := api.NewRoute().Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/orders", s.listOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", s.getOrder).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", s.updateOrderStatus).Methods(http.MethodPatch)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// routeLabel names a request by its route template so ids stay out of metric labels.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// storefront renders the single page with the catalog bootstrapped as JSON.
func (s *Server) storefront(w http.ResponseWriter, r *http.Request) {
	type viewData struct {
		Categories     []catalog.CategoryCount
		CatalogJSON    template.JS
		ZonesJSON      template.JS
		CartMode       string
		StripeKey      string
		PayPalClientID string
		Version        string
	}
	items, err := json.Marshal(s.catalog.List())
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	zones, err := json.Marshal(delivery.Zones())
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := viewData{
		Categories:     s.catalog.Counts(),
		CatalogJSON:    template.JS(items),
		ZonesJSON:      template.JS(zones),
		CartMode:       string(s.cartMode),
		StripeKey:      s.stripeKey,
		PayPalClientID: s.paypalClientID,
		Version:        version.Version(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("storefront render failed", zap.Error(err))
	}
}

// health reports whether the database answers.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version()})
}

// respondJSON writes one JSON document with the given status.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response write failed", zap.Error(err))
	}
}

// respondError keeps JSON formatting consistent across endpoints.
func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(dst)
}
