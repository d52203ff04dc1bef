package customer

import (
	"time"

	"github.com/gofrs/uuid"
)

// Customer is the buyer an order is placed for.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
