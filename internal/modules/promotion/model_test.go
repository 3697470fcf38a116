package promotion

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"autorent/internal/types"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func TestPromotionActiveOn(t *testing.T) {
	cases := []struct {
		name  string
		start *time.Time
		end   *time.Time
		on    string
		want  bool
	}{
		{"inside window", dayPtr("2024-06-01"), dayPtr("2024-06-30"), "2024-06-15", true},
		{"first day", dayPtr("2024-06-01"), dayPtr("2024-06-30"), "2024-06-01", true},
		{"last day", dayPtr("2024-06-01"), dayPtr("2024-06-30"), "2024-06-30", true},
		{"before start", dayPtr("2024-06-01"), dayPtr("2024-06-30"), "2024-05-31", false},
		{"after end", dayPtr("2024-06-01"), dayPtr("2024-06-30"), "2024-07-01", false},
		{"open start", nil, dayPtr("2024-06-30"), "2001-01-01", true},
		{"no end date", dayPtr("2024-06-01"), nil, "2024-06-15", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Promotion{StartDate: tc.start, EndDate: tc.end}
			assert.Equal(t, tc.want, p.ActiveOn(day(tc.on)))
		})
	}
}

func TestPromotionActiveOnIgnoresTimeOfDay(t *testing.T) {
	p := Promotion{EndDate: dayPtr("2024-06-30")}
	late := time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)
	assert.True(t, p.ActiveOn(late))
}

func TestPromotionAppliesTo(t *testing.T) {
	rental := ServiceRental
	assert.True(t, Promotion{}.AppliesTo(ServiceJoyRide))
	assert.True(t, Promotion{ServiceType: &rental}.AppliesTo(ServiceRental))
	assert.False(t, Promotion{ServiceType: &rental}.AppliesTo(ServiceJoyRide))
}

func TestPromotionDiscountFor(t *testing.T) {
	subtotal := decimal.NewFromInt(900)

	assert.True(t, Promotion{}.DiscountFor(subtotal).IsZero())
	assert.Equal(t, "15", Promotion{Amount: types.DecimalPtr("15")}.DiscountFor(subtotal).String())
	assert.Equal(t, "90", Promotion{Percent: types.DecimalPtr("10")}.DiscountFor(subtotal).String())
	// amount has priority
	both := Promotion{Amount: types.DecimalPtr("15"), Percent: types.DecimalPtr("50")}
	assert.Equal(t, "15", both.DiscountFor(subtotal).String())
}

func TestCouponExpiredOn(t *testing.T) {
	c := Coupon{Promotion: Promotion{StartDate: dayPtr("2030-01-01"), EndDate: dayPtr("2024-06-30")}}
	assert.False(t, c.ExpiredOn(day("2024-06-30")))
	assert.True(t, c.ExpiredOn(day("2024-07-01")))
	// start date is never consulted for coupons
	assert.False(t, c.ExpiredOn(day("2020-01-01")))

	open := Coupon{}
	assert.False(t, open.ExpiredOn(day("2099-12-31")))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER15", NormalizeCode("  summer15 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestServiceTypeValid(t *testing.T) {
	assert.True(t, ServiceRental.Valid())
	assert.True(t, ServicePerformanceExperience.Valid())
	assert.False(t, ServiceType("limo").Valid())
}
