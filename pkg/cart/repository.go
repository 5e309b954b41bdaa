package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Namespace is the fixed key prefix every persisted cart lives under.
const Namespace = "bakery-cart"

// Repository persists carts through sqlx so the sqlite and postgres drivers share one code path.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wires the handle; the Store goroutine is its only caller.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the stored cart for session, or an empty cart when none was saved yet.
func (r *Repository) Load(ctx context.Context, session string) (Cart, error) {
	var payload string
	query := r.db.Rebind("SELECT payload FROM carts WHERE namespace = ? AND session_id = ?")
	if err := r.db.GetContext(ctx, &payload, query, Namespace, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, nil
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart for session %s: %w", session, err)
	}
	return c, nil
}

// Save overwrites the stored cart for session; the last writer wins.
func (r *Repository) Save(ctx context.Context, session string, c Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	query := r.db.Rebind(`INSERT INTO carts (namespace, session_id, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, session_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	_, err = r.db.ExecContext(ctx, query, Namespace, session, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
