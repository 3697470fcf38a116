// README: Customer record carrying the flat loyalty discount.
package customer

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("customer not found")
	ErrBadRequest = errors.New("bad request")
)

type Customer struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	DiscountPct *decimal.Decimal
	CreatedAt   time.Time
}

// DiscountFor returns subtotal * discount_pct / 100, or zero without a percentage.
func (c Customer) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountPct == nil {
		return decimal.Zero
	}
	return subtotal.Mul(*c.DiscountPct).Div(decimal.NewFromInt(100))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
