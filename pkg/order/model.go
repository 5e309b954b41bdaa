package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bakeshop/pkg/checkout"
)

// Status follows an order from payment to hand-over.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusPaid, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

// ParseStatus accepts the lower-case status names used by the admin API.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range statuses {
		if s == known {
			return s, nil
		}
	}
	return "", newValidationError(fmt.Sprintf("unknown order status %q", raw))
}

// Order is a submitted checkout draft with its generated id and lifecycle status.
type Order struct {
	ID string `json:"id"`
	checkout.Draft
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemCount is the number of pieces ordered across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// NewID builds ids of the form ORDER-<unix millis>-<9 random characters>.
func NewID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("ORDER-%d-%s", now.UnixMilli(), random[:9])
}
