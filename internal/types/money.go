// README: Money and percentage value objects reported at two decimal places.
package types

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount. Arithmetic on the underlying decimal is exact;
// the value is rounded half-up to cents only when it is reported.
type Money struct {
	d decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("types: parse money %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// Decimal returns the unrounded amount.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Rounded returns the amount rounded to cents.
func (m Money) Rounded() decimal.Decimal { return roundCents(m.d) }

func (m Money) String() string { return roundCents(m.d).StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := unmarshalDecimal(b)
	if err != nil {
		return err
	}
	m.d = d
	return nil
}

// Percent is a percentage such as 10 for ten percent. It shares Money's
// reporting rule.
type Percent struct {
	d decimal.Decimal
}

func NewPercent(d decimal.Decimal) Percent {
	return Percent{d: d}
}

func (p Percent) Decimal() decimal.Decimal { return p.d }

func (p Percent) String() string { return roundCents(p.d).StringFixed(2) }

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	d, err := unmarshalDecimal(b)
	if err != nil {
		return err
	}
	p.d = d
	return nil
}

// roundCents rounds half away from zero, which is half-up for the
// non-negative amounts the pricing chain produces.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func unmarshalDecimal(b []byte) (decimal.Decimal, error) {
	if bytes.Equal(b, []byte("null")) {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return decimal.Zero, fmt.Errorf("types: decode decimal: %w", err)
	}
	return d, nil
}
