package payment

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

type Method string

const (
	MethodPix     Method = "PIX"
	MethodCard    Method = "CARD"
	MethodBoleto  Method = "BOLETO"
	MethodUnknown Method = "UNKNOWN"
)

// ParseMethod maps anything unrecognised to MethodUnknown.
func ParseMethod(raw string) Method {
	switch m := Method(strings.ToUpper(strings.TrimSpace(raw))); m {
	case MethodPix, MethodCard, MethodBoleto:
		return m
	}
	return MethodUnknown
}

// Valid reports whether the method may be persisted.
func (m Method) Valid() bool {
	switch m {
	case MethodPix, MethodCard, MethodBoleto:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// Payment records money received for an order. PaidAt is set only on the payment that
// settles the order.
type Payment struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	OrderID     uuid.UUID   `json:"order_id" db:"order_id"`
	Method      Method      `json:"method" db:"method"`
	AmountCents money.Cents `json:"amount_cents" db:"amount_cents"`
	PaidAt      *time.Time  `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type CreateInput struct {
	OrderID     uuid.UUID
	Method      Method
	AmountCents money.Cents
}

// Result of a recorded payment. StillMissingCents is nil once the order is settled.
type Result struct {
	Payment           *Payment
	StillMissingCents *money.Cents
}
