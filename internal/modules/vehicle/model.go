// README: Vehicle pricing facts shown on the marketing site.
package vehicle

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("vehicle not found")

type Vehicle struct {
	ID              int64
	Slug            string
	Name            string
	PricePerDay     decimal.Decimal
	Discount2Day    *decimal.Decimal
	Discount3Day    *decimal.Decimal
	Discount7Day    *decimal.Decimal
	SecurityDeposit decimal.Decimal
	MilesIncluded   int
}

// MultiDayDiscountPct picks the single tier for numDays: seven days and up
// use the 7-day rate, three and up the 3-day rate, two the 2-day rate.
func (v Vehicle) MultiDayDiscountPct(numDays int) decimal.Decimal {
	var pct *decimal.Decimal
	switch {
	case numDays >= 7:
		pct = v.Discount7Day
	case numDays >= 3:
		pct = v.Discount3Day
	case numDays >= 2:
		pct = v.Discount2Day
	}
	if pct == nil {
		return decimal.Zero
	}
	return *pct
}
