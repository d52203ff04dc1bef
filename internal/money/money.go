package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrOverflow = errors.New("money: amount out of range")

// Cents is an amount of money in the smallest currency unit.
type Cents int64

// Times does not check for overflow. Amounts that were never validated go through
// CheckedTimes.
func (c Cents) Times(quantity int) Cents {
	return c * Cents(quantity)
}

// CheckedTimes multiplies by a non-negative quantity and reports ErrOverflow when the
// product does not fit in int64.
func (c Cents) CheckedTimes(quantity int) (Cents, error) {
	if quantity < 0 {
		return 0, errors.New("money: negative quantity")
	}
	if c == 0 || quantity == 0 {
		return 0, nil
	}
	q := int64(quantity)
	if int64(c) > math.MaxInt64/q || int64(c) < math.MinInt64/q {
		return 0, ErrOverflow
	}
	return Cents(int64(c) * q), nil
}

// Decimal renders the amount in major units with two decimal places.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Sum adds the values and reports ErrOverflow instead of wrapping around.
func Sum(values ...Cents) (Cents, error) {
	var total int64
	for _, v := range values {
		n := int64(v)
		if (n > 0 && total > math.MaxInt64-n) || (n < 0 && total < math.MinInt64-n) {
			return 0, ErrOverflow
		}
		total += n
	}
	return Cents(total), nil
}
