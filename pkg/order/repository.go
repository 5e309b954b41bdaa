package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/checkout"
)

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const orderColumns = `id, customer_name, customer_email, customer_phone, address, city, zip_code, notes,
	delivery_method, items, subtotal, delivery_fee, total, payment_method, payment_id, status, created_at, updated_at`

// row is the flat database layout of an order; line items are stored as JSON.
type row struct {
	ID             string          `db:"id"`
	CustomerName   string          `db:"customer_name"`
	CustomerEmail  string          `db:"customer_email"`
	CustomerPhone  string          `db:"customer_phone"`
	Address        string          `db:"address"`
	City           string          `db:"city"`
	ZipCode        string          `db:"zip_code"`
	Notes          string          `db:"notes"`
	DeliveryMethod string          `db:"delivery_method"`
	Items          string          `db:"items"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	DeliveryFee    decimal.Decimal `db:"delivery_fee"`
	Total          decimal.Decimal `db:"total"`
	PaymentMethod  string          `db:"payment_method"`
	PaymentID      string          `db:"payment_id"`
	Status         string          `db:"status"`
	CreatedAt      string          `db:"created_at"`
	UpdatedAt      string          `db:"updated_at"`
}

// Repository coordinates the persistence of orders through sqlx so the service stays storage-agnostic.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wires the database handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a new order while delegating serialization details to this layer.
func (r *Repository) Save(ctx context.Context, o Order) error {
	rec, err := toRow(o)
	if err != nil {
		return err
	}
	query := `INSERT INTO orders (` + orderColumns + `) VALUES (
		:id, :customer_name, :customer_email, :customer_phone, :address, :city, :zip_code, :notes,
		:delivery_method, :items, :subtotal, :delivery_fee, :total, :payment_method, :payment_id, :status, :created_at, :updated_at)`
	_, err = r.db.NamedExecContext(ctx, query, rec)
	return err
}

// Get loads one order by id.
func (r *Repository) Get(ctx context.Context, id string) (Order, error) {
	var rec row
	query := r.db.Rebind("SELECT " + orderColumns + " FROM orders WHERE id = ?")
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return fromRow(rec)
}

// List fetches all orders newest first for the admin view.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	return r.selectOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

// FindByPayment returns the orders confirmed by a provider payment id.
func (r *Repository) FindByPayment(ctx context.Context, paymentID string) ([]Order, error) {
	return r.selectOrders(ctx, r.db.Rebind("SELECT "+orderColumns+" FROM orders WHERE payment_id = ? ORDER BY created_at"), paymentID)
}

// UpdateStatus changes the status and bumps updated_at. It reports ErrNotFound for unknown ids.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) error {
	query := r.db.Rebind("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, string(status), formatTime(now), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) selectOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	var recs []row
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(recs))
	for _, rec := range recs {
		o, err := fromRow(rec)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func toRow(o Order) (row, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return row{}, err
	}
	c := o.Customer
	return row{
		ID:             o.ID,
		CustomerName:   c.Name,
		CustomerEmail:  c.Email,
		CustomerPhone:  c.Phone,
		Address:        c.Address,
		City:           c.City,
		ZipCode:        c.ZipCode,
		Notes:          c.Notes,
		DeliveryMethod: string(c.Method()),
		Items:          string(items),
		Subtotal:       o.Subtotal,
		DeliveryFee:    o.DeliveryFee,
		Total:          o.Total,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentID:      o.PaymentID,
		Status:         string(o.Status),
		CreatedAt:      formatTime(o.CreatedAt),
		UpdatedAt:      formatTime(o.UpdatedAt),
	}, nil
}

func fromRow(rec row) (Order, error) {
	var items []cart.Line
	if err := json.Unmarshal([]byte(rec.Items), &items); err != nil {
		return Order{}, err
	}
	created, err := time.Parse(timeLayout, rec.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	updated, err := time.Parse(timeLayout, rec.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID: rec.ID,
		Draft: checkout.Draft{
			Items:       items,
			Subtotal:    rec.Subtotal,
			DeliveryFee: rec.DeliveryFee,
			Total:       rec.Total,
			Customer: checkout.CustomerInfo{
				Name:           rec.CustomerName,
				Email:          rec.CustomerEmail,
				Phone:          rec.CustomerPhone,
				Address:        rec.Address,
				City:           rec.City,
				ZipCode:        rec.ZipCode,
				Notes:          rec.Notes,
				DeliveryMethod: checkout.DeliveryMethod(rec.DeliveryMethod),
			},
			PaymentMethod: checkout.PaymentMethod(rec.PaymentMethod),
			PaymentID:     rec.PaymentID,
		},
		Status:    Status(rec.Status),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
