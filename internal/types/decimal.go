package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DecimalArg renders an optional decimal for a `$n::text::numeric` query
// parameter.
func DecimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseDecimalPtr reads a `numeric::text` column.
func ParseDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("types: parse numeric %q: %w", *s, err)
	}
	return &d, nil
}

// DecimalPtr is a convenience for building optional decimals in literals.
func DecimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"
