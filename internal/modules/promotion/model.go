// README: Promotion and coupon definitions with their eligibility rules.
package promotion

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"autorent/internal/types"
)

var (
	ErrNotFound      = errors.New("promotion not found")
	ErrBadRequest    = errors.New("bad request")
	ErrDuplicateCode = errors.New("coupon code already exists")
)

type ServiceType string

const (
	ServiceRental                ServiceType = "rental"
	ServiceJoyRide               ServiceType = "joy_ride"
	ServicePerformanceExperience ServiceType = "performance_experience"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceRental, ServiceJoyRide, ServicePerformanceExperience:
		return true
	}
	return false
}

// Promotion is a time-bounded discount open to every customer, optionally
// restricted to one service type.
type Promotion struct {
	ID          int64
	Name        string
	Amount      *decimal.Decimal
	Percent     *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ServiceType *ServiceType
	CreatedAt   time.Time
}

// ActiveOn reports whether d falls inside the promotion window. A promotion
// without an end date is never active.
func (p Promotion) ActiveOn(d time.Time) bool {
	day := types.Date(d)
	if p.StartDate != nil && types.Date(*p.StartDate).After(day) {
		return false
	}
	return p.EndDate != nil && !types.Date(*p.EndDate).Before(day)
}

// AppliesTo reports whether the promotion is unscoped or scoped to st.
func (p Promotion) AppliesTo(st ServiceType) bool {
	return p.ServiceType == nil || *p.ServiceType == st
}

// DiscountFor returns the amount taken off subtotal. A flat amount wins over
// a percentage when both are set.
func (p Promotion) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	if p.Amount != nil {
		return *p.Amount
	}
	if p.Percent != nil {
		return subtotal.Mul(*p.Percent).Div(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// Coupon is a promotion unlocked by a code. Only the end date limits it.
type Coupon struct {
	Promotion
	Code string
}

// ExpiredOn reports whether d is after the coupon's end date.
func (c Coupon) ExpiredOn(d time.Time) bool {
	if c.EndDate == nil {
		return false
	}
	return types.Date(d).After(types.Date(*c.EndDate))
}

// NormalizeCode is the stored form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
