package order

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

type Status string

const (
	StatusNew       Status = "NEW"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts any letter case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.InvalidInput("invalid order status %q", raw)
	}
	return s, nil
}

// OrderItem is a line of an order. UnitPriceCents is the catalog price captured when the
// order was placed and never changes afterwards.
type OrderItem struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	OrderID        uuid.UUID   `json:"order_id" db:"order_id"`
	ProductID      uuid.UUID   `json:"product_id" db:"product_id"`
	Position       int         `json:"position" db:"position"`
	Quantity       int         `json:"quantity" db:"quantity"`
	UnitPriceCents money.Cents `json:"unit_price_cents" db:"unit_price_cents"`
}

func (i OrderItem) SubtotalCents() money.Cents {
	return i.UnitPriceCents.Times(i.Quantity)
}

type Order struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	CustomerID uuid.UUID   `json:"customer_id" db:"customer_id"`
	Status     Status      `json:"status" db:"status"`
	Items      []OrderItem `json:"items" db:"-"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// TotalCents is derived from the loaded items; it is never stored.
func (o Order) TotalCents() money.Cents {
	var total money.Cents
	for _, item := range o.Items {
		total += item.SubtotalCents()
	}
	return total
}

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateInput struct {
	CustomerID uuid.UUID
	Items      []ItemInput
}

// Summary is one row of the order listing with store-side aggregates.
type Summary struct {
	ID             uuid.UUID   `json:"id"`
	CustomerID     uuid.UUID   `json:"customer_id"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	TotalCents     money.Cents `json:"total_cents"`
	TotalPaidCents money.Cents `json:"total_paid_cents"`
}

// SummaryFilter fields are combined with AND. Nil means no restriction.
type SummaryFilter struct {
	Status     *Status
	CustomerID *uuid.UUID
	Limit      *int
}

type ItemDetails struct {
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int
	UnitPriceCents money.Cents
	SubtotalCents  money.Cents
}

type Details struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Status     Status
	CreatedAt  time.Time
	Items      []ItemDetails
	TotalCents money.Cents
}
